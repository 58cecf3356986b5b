package registry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
	"ntdiff/internal/policy"
	"ntdiff/internal/typediff"
)

// Status is what a registration did to one node type.
type Status string

const (
	StatusAdded     Status = "added"
	StatusUpdated   Status = "updated"
	StatusUnchanged Status = "unchanged"
	StatusRemoved   Status = "removed"
	StatusRejected  Status = "rejected"
	// StatusSkipped marks an acceptable change that was not stored because
	// another node type in the same batch was rejected.
	StatusSkipped Status = "skipped"
)

// Entry is the registered version of a node type.
type Entry struct {
	Name         string                      `json:"name"`
	Version      int                         `json:"version"`
	RegisteredAt time.Time                   `json:"registeredAt"`
	Definition   nodetype.NodeTypeDefinition `json:"definition"`
}

// Registration is one row of a node type's history.
type Registration struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Version      int               `json:"version"`
	Operation    string            `json:"operation"`
	Severity     typediff.Severity `json:"severity"`
	Forced       bool              `json:"forced,omitempty"`
	Reason       string            `json:"reason"`
	Report       *typediff.Report  `json:"report,omitempty"`
	RegisteredAt time.Time         `json:"registeredAt"`
}

// Options control a registration.
type Options struct {
	Policy policy.Policy
	// Force accepts changes above the policy maximum.
	Force bool
	// DryRun classifies and evaluates without writing.
	DryRun bool
}

// Outcome reports what happened to one node type.
type Outcome struct {
	Name           string                   `json:"name"`
	Status         Status                   `json:"status"`
	Version        int                      `json:"version,omitempty"`
	Decision       policy.Decision          `json:"decision"`
	Report         *typediff.Report         `json:"report,omitempty"`
	RegistrationID string                   `json:"registrationId,omitempty"`
	Diff           *typediff.DefinitionDiff `json:"-"`
}

// Result collects the outcomes of one Register call in input order. In a dry
// run, added and updated outcomes report what would have been stored and
// carry no registration id.
type Result struct {
	Outcomes []Outcome `json:"outcomes"`
	DryRun   bool      `json:"dryRun,omitempty"`
}

// Rejected returns the outcomes refused by the policy.
func (r *Result) Rejected() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusRejected {
			out = append(out, o)
		}
	}
	return out
}

// Register classifies each definition against its registered version and
// stores every changed one. The batch is all-or-nothing: if the policy
// refuses any change, nothing is written and the returned error has code
// REGISTRATION_REJECTED. The Result is returned in both cases.
func (r *Registry) Register(ctx context.Context, defs []nodetype.NodeTypeDefinition, opts Options) (*Result, error) {
	if err := nodetype.Validate(defs); err != nil {
		return nil, err
	}

	result := &Result{Outcomes: make([]Outcome, 0, len(defs)), DryRun: opts.DryRun}
	errRejected := errors.Newf(errors.RegistrationRejected, "registration rejected")

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		now := r.now().UTC()
		for _, def := range defs {
			out, err := r.registerOne(ctx, tx, def, opts, now)
			if err != nil {
				return err
			}
			result.Outcomes = append(result.Outcomes, out)
		}
		if len(result.Rejected()) > 0 || opts.DryRun {
			// roll back; nothing of the batch is kept
			return errRejected
		}
		return nil
	})

	rejected := result.Rejected()
	if err == errRejected {
		result.discard(len(rejected) > 0)
	}
	switch {
	case err == errRejected && len(rejected) > 0:
		names := make([]string, len(rejected))
		reasons := make([]string, len(rejected))
		for i, o := range rejected {
			names[i] = o.Name
			reasons[i] = o.Decision.Reason
		}
		r.logger.Warn("Registration rejected", "nodeTypes", strings.Join(names, ","))
		return result, errors.Newf(errors.RegistrationRejected, "%d of %d node types exceed the registration policy: %s",
			len(rejected), len(defs), strings.Join(names, ", ")).WithDetails(reasons)
	case err == errRejected:
		// dry run
		return result, nil
	case err != nil:
		return nil, err
	}

	for _, o := range result.Outcomes {
		if o.Status == StatusAdded || o.Status == StatusUpdated {
			r.logger.Info("Registered node type",
				"nodeType", o.Name,
				"version", o.Version,
				"severity", o.Decision.Severity.String(),
				"forced", o.Decision.Forced,
			)
		}
	}
	return result, nil
}

// discard reverts the outcomes of a rolled back batch. No registration id
// survives a rollback; when the batch was rejected, the accepted changes
// become skipped and keep their stored version.
func (r *Result) discard(rejected bool) {
	for i := range r.Outcomes {
		o := &r.Outcomes[i]
		o.RegistrationID = ""
		if !rejected {
			continue
		}
		switch o.Status {
		case StatusAdded:
			o.Status = StatusSkipped
			o.Version = 0
		case StatusUpdated:
			o.Status = StatusSkipped
			o.Version--
		}
	}
}

func (r *Registry) registerOne(ctx context.Context, tx *sql.Tx, def nodetype.NodeTypeDefinition, opts Options, now time.Time) (Outcome, error) {
	out := Outcome{Name: def.Name}

	stored, err := r.getEntry(ctx, tx, def.Name)
	if err != nil && !errors.HasCode(err, errors.DefinitionNotFound) {
		return out, err
	}

	if stored == nil {
		out.Decision = opts.Policy.EvaluateNew(def.Name, opts.Force)
		out.Status = StatusAdded
		out.Version = 1
	} else {
		d, err := typediff.Compare(&stored.Definition, &def)
		if err != nil {
			return out, err
		}
		r.logger.Debug("Classified node type",
			"nodeType", def.Name,
			"severity", d.Severity().String(),
			"properties", d.Properties().Len(),
			"childNodes", d.ChildNodes().Len(),
		)
		out.Diff = d
		if !d.IsModified() {
			out.Status = StatusUnchanged
			out.Version = stored.Version
			out.Decision = opts.Policy.Evaluate(d, opts.Force)
			return out, nil
		}
		report := d.Report()
		out.Report = &report
		out.Decision = opts.Policy.Evaluate(d, opts.Force)
		if !out.Decision.Allowed {
			out.Status = StatusRejected
			out.Version = stored.Version
			return out, nil
		}
		out.Status = StatusUpdated
		out.Version = stored.Version + 1
	}

	blob, encoding, err := r.blobs.encode(def)
	if err != nil {
		return out, errors.New(errors.InternalError, fmt.Sprintf("cannot encode %s", def.Name), err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO node_types (name, version, encoding, definition, registered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			version = excluded.version,
			encoding = excluded.encoding,
			definition = excluded.definition,
			registered_at = excluded.registered_at
	`, def.Name, out.Version, encoding, blob, formatTime(now))
	if err != nil {
		return out, errors.New(errors.StorageFailure, fmt.Sprintf("cannot store %s", def.Name), err)
	}

	out.RegistrationID, err = insertRegistration(ctx, tx, out, "register", now)
	return out, err
}

// Unregister removes a node type. Removal is a MAJOR change, so it needs a
// policy allowing MAJOR changes or opts.Force.
func (r *Registry) Unregister(ctx context.Context, name string, opts Options) (*Outcome, error) {
	out := &Outcome{Name: name}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		stored, err := r.getEntry(ctx, tx, name)
		if err != nil {
			return err
		}
		out.Version = stored.Version
		out.Decision = opts.Policy.EvaluateRemoval(name, opts.Force)
		if !out.Decision.Allowed {
			out.Status = StatusRejected
			return errors.New(errors.RegistrationRejected, out.Decision.Reason, nil)
		}
		out.Status = StatusRemoved
		if opts.DryRun {
			return nil
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM node_types WHERE name = ?", name); err != nil {
			return errors.New(errors.StorageFailure, fmt.Sprintf("cannot remove %s", name), err)
		}
		out.RegistrationID, err = insertRegistration(ctx, tx, *out, "unregister", r.now().UTC())
		return err
	})
	if err != nil {
		if errors.HasCode(err, errors.RegistrationRejected) {
			return out, err
		}
		return nil, err
	}
	if !opts.DryRun {
		r.logger.Info("Unregistered node type", "nodeType", name, "forced", out.Decision.Forced)
	}
	return out, nil
}

func insertRegistration(ctx context.Context, tx *sql.Tx, out Outcome, operation string, now time.Time) (string, error) {
	var reportJSON sql.NullString
	if out.Report != nil {
		data, err := json.Marshal(out.Report)
		if err != nil {
			return "", errors.New(errors.InternalError, "cannot encode report", err)
		}
		reportJSON = sql.NullString{String: string(data), Valid: true}
	}

	id := uuid.New().String()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO registrations (id, name, version, operation, severity, forced, reason, report_json, registered_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, out.Name, out.Version, operation, out.Decision.Severity.String(), out.Decision.Forced,
		out.Decision.Reason, reportJSON, formatTime(now))
	if err != nil {
		return "", errors.New(errors.StorageFailure, fmt.Sprintf("cannot record history of %s", out.Name), err)
	}
	return id, nil
}

// Get returns the registered version of a node type.
func (r *Registry) Get(ctx context.Context, name string) (*Entry, error) {
	return r.getEntry(ctx, r.conn, name)
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *Registry) getEntry(ctx context.Context, q querier, name string) (*Entry, error) {
	row := q.QueryRowContext(ctx, `
		SELECT name, version, encoding, definition, registered_at
		FROM node_types WHERE name = ?
	`, name)
	e, err := r.scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, errors.Newf(errors.DefinitionNotFound, "node type %s is not registered", name)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns all registered node types ordered by name.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT name, version, encoding, definition, registered_at
		FROM node_types ORDER BY name
	`)
	if err != nil {
		return nil, errors.New(errors.StorageFailure, "cannot list node types", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StorageFailure, "cannot list node types", err)
	}
	return entries, nil
}

// Definitions returns the definitions of all registered node types ordered
// by name.
func (r *Registry) Definitions(ctx context.Context) ([]nodetype.NodeTypeDefinition, error) {
	entries, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	defs := make([]nodetype.NodeTypeDefinition, len(entries))
	for i, e := range entries {
		defs[i] = e.Definition
	}
	return defs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *Registry) scanEntry(s scanner) (*Entry, error) {
	var (
		e        Entry
		encoding string
		blob     []byte
		at       string
	)
	if err := s.Scan(&e.Name, &e.Version, &encoding, &blob, &at); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, errors.New(errors.StorageFailure, "cannot read node type", err)
	}
	def, err := r.blobs.decode(blob, encoding)
	if err != nil {
		return nil, errors.New(errors.StorageFailure, fmt.Sprintf("stored definition of %s is corrupt", e.Name), err)
	}
	e.Definition = def
	if e.RegisteredAt, err = parseTime(at); err != nil {
		return nil, errors.New(errors.StorageFailure, fmt.Sprintf("bad timestamp for %s", e.Name), err)
	}
	return &e, nil
}

// History returns the registrations of a node type, oldest first. A node
// type that was unregistered still has a history.
func (r *Registry) History(ctx context.Context, name string) ([]Registration, error) {
	rows, err := r.conn.QueryContext(ctx, `
		SELECT id, name, version, operation, severity, forced, reason, report_json, registered_at
		FROM registrations WHERE name = ? ORDER BY rowid
	`, name)
	if err != nil {
		return nil, errors.New(errors.StorageFailure, "cannot read history", err)
	}
	defer func() { _ = rows.Close() }()

	var history []Registration
	for rows.Next() {
		var (
			reg        Registration
			severity   string
			reportJSON sql.NullString
			at         string
		)
		if err := rows.Scan(&reg.ID, &reg.Name, &reg.Version, &reg.Operation, &severity, &reg.Forced,
			&reg.Reason, &reportJSON, &at); err != nil {
			return nil, errors.New(errors.StorageFailure, "cannot read history", err)
		}
		if reg.Severity, err = typediff.ParseSeverity(severity); err != nil {
			return nil, errors.New(errors.StorageFailure, "cannot read history", err)
		}
		if reportJSON.Valid {
			reg.Report = &typediff.Report{}
			if err := json.Unmarshal([]byte(reportJSON.String), reg.Report); err != nil {
				return nil, errors.New(errors.StorageFailure, "cannot read history report", err)
			}
		}
		if reg.RegisteredAt, err = parseTime(at); err != nil {
			return nil, errors.New(errors.StorageFailure, "cannot read history", err)
		}
		history = append(history, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.New(errors.StorageFailure, "cannot read history", err)
	}
	if len(history) == 0 {
		return nil, errors.Newf(errors.DefinitionNotFound, "node type %s has no registration history", name)
	}
	return history, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
