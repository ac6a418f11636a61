package storage

import (
	"database/sql"
	"fmt"
)

// UsageRow is one (command, invoker) usage counter.
type UsageRow struct {
	CommandName string
	InvokerID   string
	Uses        int
}

// IncrementUsage bumps the usage counter for a (command, invoker) pair,
// creating the row on first use.
func (s *Store) IncrementUsage(commandName, invokerID string) error {
	if s.db == nil {
		return fmt.Errorf("store not initialized")
	}
	if commandName == "" || invokerID == "" {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO command_usage (command_name, invoker_id, uses)
         VALUES (?, ?, 1)
         ON CONFLICT(command_name, invoker_id) DO UPDATE SET
           uses = command_usage.uses + 1`,
		commandName, invokerID,
	)
	return err
}

// GetUsage returns how many times an invoker has used a command.
func (s *Store) GetUsage(commandName, invokerID string) (int, bool, error) {
	if s.db == nil {
		return 0, false, fmt.Errorf("store not initialized")
	}
	var uses int
	err := s.db.QueryRow(
		`SELECT uses FROM command_usage WHERE command_name=? AND invoker_id=?`,
		commandName, invokerID,
	).Scan(&uses)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uses, true, nil
}

// TopUsage returns the most-used commands aggregated across invokers,
// highest first.
func (s *Store) TopUsage(limit int) ([]UsageRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT command_name, SUM(uses) AS total FROM command_usage
         GROUP BY command_name ORDER BY total DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.CommandName, &row.Uses); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TopInvokers returns the heaviest users of a single command, highest first.
func (s *Store) TopInvokers(commandName string, limit int) ([]UsageRow, error) {
	if s.db == nil {
		return nil, fmt.Errorf("store not initialized")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(
		`SELECT command_name, invoker_id, uses FROM command_usage
         WHERE command_name=? ORDER BY uses DESC LIMIT ?`,
		commandName, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []UsageRow
	for rows.Next() {
		var row UsageRow
		if err := rows.Scan(&row.CommandName, &row.InvokerID, &row.Uses); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}
