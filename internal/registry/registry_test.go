package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ntdiff/internal/errors"
	"ntdiff/internal/nodetype"
	"ntdiff/internal/policy"
	"ntdiff/internal/slogutil"
	"ntdiff/internal/typediff"
)

func setupTestRegistry(t *testing.T, compress bool) *Registry {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".ntdiff", "registry.db")
	r, err := Open(path, compress, slogutil.NewDiscardLogger())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := r.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return r
}

func document(edit ...func(*nodetype.NodeTypeDefinition)) nodetype.NodeTypeDefinition {
	d := nodetype.NodeTypeDefinition{
		Name:       "app:document",
		Supertypes: []string{"nt:hierarchyNode"},
		Properties: []nodetype.PropertyDefinition{
			{
				ItemDefinition: nodetype.ItemDefinition{Name: "title", DeclaringNodeType: "app:document", Mandatory: true},
				RequiredType:   nodetype.PropertyTypeString,
			},
		},
		ChildNodes: []nodetype.ChildNodeDefinition{
			{
				ItemDefinition:       nodetype.ItemDefinition{Name: "jcr:content", DeclaringNodeType: "app:document"},
				RequiredPrimaryTypes: []string{"nt:base"},
			},
		},
	}
	for _, e := range edit {
		e(&d)
	}
	return d
}

func folder() nodetype.NodeTypeDefinition {
	return nodetype.NodeTypeDefinition{Name: "app:folder", Supertypes: []string{"nt:folder"}}
}

func defaultOpts() Options {
	return Options{Policy: policy.Default()}
}

func mustRegister(t *testing.T, r *Registry, opts Options, defs ...nodetype.NodeTypeDefinition) *Result {
	t.Helper()
	res, err := r.Register(context.Background(), defs, opts)
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return res
}

func TestOpen_InitializesSchema(t *testing.T) {
	r := setupTestRegistry(t, true)

	if _, err := os.Stat(r.Path()); err != nil {
		t.Fatalf("database file was not created: %v", err)
	}
	version, err := r.getSchemaVersion()
	if err != nil {
		t.Fatalf("getSchemaVersion() error = %v", err)
	}
	if version != currentSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, currentSchemaVersion)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	r, err := Open(path, true, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	mustRegister(t, r, defaultOpts(), document())
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}

	// reopening without compression still reads compressed rows
	r, err = Open(path, false, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = r.Close() }()

	e, err := r.Get(context.Background(), "app:document")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := document()
	if !e.Definition.Equal(&want) {
		t.Errorf("Get() definition = %+v, want %+v", e.Definition, want)
	}
}

func TestOpen_RejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.db")
	r, err := Open(path, false, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.conn.Exec("UPDATE schema_version SET version = ?", currentSchemaVersion+1); err != nil {
		t.Fatal(err)
	}
	_ = r.Close()

	if _, err := Open(path, false, nil); !errors.HasCode(err, errors.StorageFailure) {
		t.Errorf("Open() error = %v, want %s", err, errors.StorageFailure)
	}
}

func TestRegister_AddThenUpdate(t *testing.T) {
	for _, compress := range []bool{false, true} {
		t.Run(map[bool]string{false: "json", true: "zstd"}[compress], func(t *testing.T) {
			r := setupTestRegistry(t, compress)
			ctx := context.Background()

			res := mustRegister(t, r, defaultOpts(), document(), folder())
			if len(res.Outcomes) != 2 {
				t.Fatalf("got %d outcomes, want 2", len(res.Outcomes))
			}
			for _, o := range res.Outcomes {
				if o.Status != StatusAdded || o.Version != 1 || o.RegistrationID == "" {
					t.Errorf("outcome %+v, want added at version 1 with an id", o)
				}
			}

			// trivial change: a new optional property
			changed := document(func(d *nodetype.NodeTypeDefinition) {
				d.Properties = append(d.Properties, nodetype.PropertyDefinition{
					ItemDefinition: nodetype.ItemDefinition{Name: "summary", DeclaringNodeType: "app:document"},
				})
			})
			res = mustRegister(t, r, defaultOpts(), changed, folder())
			if got := res.Outcomes[0]; got.Status != StatusUpdated || got.Version != 2 || got.Decision.Severity != typediff.SeverityTrivial {
				t.Errorf("changed outcome = %+v, want updated to version 2 at TRIVIAL", got)
			}
			if got := res.Outcomes[0]; got.Report == nil || got.Report.NodeType != "app:document" {
				t.Errorf("changed outcome should carry a report, got %+v", got.Report)
			}
			if got := res.Outcomes[1]; got.Status != StatusUnchanged || got.Version != 1 || got.RegistrationID != "" {
				t.Errorf("unchanged outcome = %+v", got)
			}

			e, err := r.Get(ctx, "app:document")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if e.Version != 2 || !e.Definition.Equal(&changed) {
				t.Errorf("Get() = version %d %+v", e.Version, e.Definition)
			}
		})
	}
}

func TestRegister_RejectionIsAllOrNothing(t *testing.T) {
	r := setupTestRegistry(t, true)
	ctx := context.Background()
	mustRegister(t, r, defaultOpts(), document())

	major := document(func(d *nodetype.NodeTypeDefinition) { d.Mixin = true })
	res, err := r.Register(ctx, []nodetype.NodeTypeDefinition{folder(), major}, defaultOpts())
	if !errors.HasCode(err, errors.RegistrationRejected) {
		t.Fatalf("Register() error = %v, want %s", err, errors.RegistrationRejected)
	}
	if res == nil || len(res.Rejected()) != 1 || res.Rejected()[0].Name != "app:document" {
		t.Fatalf("Rejected() = %+v, want app:document", res)
	}
	if o := res.Outcomes[0]; o.Status != StatusSkipped || o.Version != 0 || o.RegistrationID != "" {
		t.Errorf("folder outcome = %+v, want skipped with no version or registration id", o)
	}

	if _, err := r.Get(ctx, "app:folder"); !errors.HasCode(err, errors.DefinitionNotFound) {
		t.Errorf("app:folder must not be stored after a rejected batch, Get() error = %v", err)
	}
	e, err := r.Get(ctx, "app:document")
	if err != nil || e.Version != 1 || e.Definition.Mixin {
		t.Errorf("app:document must keep version 1, got %+v, %v", e, err)
	}
}

func TestRegister_RolledBackBatchHasNoRegistrationIDs(t *testing.T) {
	r := setupTestRegistry(t, false)
	ctx := context.Background()
	mustRegister(t, r, defaultOpts(), document(), folder())

	tag := nodetype.NodeTypeDefinition{Name: "app:tag", Mixin: true}
	trivial := folder()
	trivial.OrderableChildNodes = true
	major := document(func(d *nodetype.NodeTypeDefinition) { d.Mixin = true })

	tests := []struct {
		name       string
		defs       []nodetype.NodeTypeDefinition
		opts       Options
		wantErr    bool
		wantStatus []Status
		wantVer    []int
	}{
		{
			name:       "rejected batch",
			defs:       []nodetype.NodeTypeDefinition{tag, trivial, major},
			opts:       defaultOpts(),
			wantErr:    true,
			wantStatus: []Status{StatusSkipped, StatusSkipped, StatusRejected},
			wantVer:    []int{0, 1, 1},
		},
		{
			name:       "dry run",
			defs:       []nodetype.NodeTypeDefinition{tag, trivial},
			opts:       Options{Policy: policy.Default(), DryRun: true},
			wantStatus: []Status{StatusAdded, StatusUpdated},
			wantVer:    []int{1, 2},
		},
		{
			name:       "rejected dry run",
			defs:       []nodetype.NodeTypeDefinition{tag, major},
			opts:       Options{Policy: policy.Default(), DryRun: true},
			wantErr:    true,
			wantStatus: []Status{StatusSkipped, StatusRejected},
			wantVer:    []int{0, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Register(ctx, tt.defs, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(res.Outcomes) != len(tt.wantStatus) {
				t.Fatalf("got %d outcomes, want %d", len(res.Outcomes), len(tt.wantStatus))
			}
			for i, o := range res.Outcomes {
				if o.RegistrationID != "" {
					t.Errorf("%s carries registration id %q for a rolled back batch", o.Name, o.RegistrationID)
				}
				if o.Status != tt.wantStatus[i] || o.Version != tt.wantVer[i] {
					t.Errorf("%s = %s v%d, want %s v%d", o.Name, o.Status, o.Version, tt.wantStatus[i], tt.wantVer[i])
				}
			}
		})
	}

	if _, err := r.History(ctx, "app:tag"); !errors.HasCode(err, errors.DefinitionNotFound) {
		t.Errorf("app:tag must have no history, History() error = %v", err)
	}
	if e, err := r.Get(ctx, "app:folder"); err != nil || e.Version != 1 {
		t.Errorf("app:folder must stay at version 1, got %+v, %v", e, err)
	}
}

func TestRegister_ForceAndPolicy(t *testing.T) {
	r := setupTestRegistry(t, false)
	ctx := context.Background()
	mustRegister(t, r, defaultOpts(), document())

	minor := document(func(d *nodetype.NodeTypeDefinition) {
		d.Properties[0].RequiredType = nodetype.PropertyTypeUndefined
	})
	if _, err := r.Register(ctx, []nodetype.NodeTypeDefinition{minor}, defaultOpts()); !errors.HasCode(err, errors.RegistrationRejected) {
		t.Fatalf("MINOR change under default policy: error = %v", err)
	}

	lenient := Options{Policy: policy.Policy{MaxSeverity: typediff.SeverityMinor}}
	res := mustRegister(t, r, lenient, minor)
	if o := res.Outcomes[0]; o.Status != StatusUpdated || o.Decision.Forced {
		t.Errorf("MINOR change under MINOR policy = %+v", o)
	}

	major := document(func(d *nodetype.NodeTypeDefinition) { d.Supertypes = nil })
	res = mustRegister(t, r, Options{Policy: policy.Default(), Force: true}, major)
	if o := res.Outcomes[0]; o.Status != StatusUpdated || !o.Decision.Forced || o.Version != 3 {
		t.Errorf("forced MAJOR change = %+v", o)
	}

	history, err := r.History(ctx, "app:document")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	wantSev := []typediff.Severity{typediff.SeverityNone, typediff.SeverityMinor, typediff.SeverityMajor}
	if len(history) != len(wantSev) {
		t.Fatalf("History() has %d entries, want %d", len(history), len(wantSev))
	}
	for i, h := range history {
		if h.Severity != wantSev[i] || h.Version != i+1 || h.Operation != "register" {
			t.Errorf("history[%d] = %+v", i, h)
		}
	}
	if !history[2].Forced {
		t.Error("forced registration should be recorded as forced")
	}
	if history[0].Report != nil {
		t.Error("initial registration has no diff report")
	}
	if history[1].Report == nil || history[1].Report.Severity != typediff.SeverityMinor {
		t.Errorf("history[1].Report = %+v", history[1].Report)
	}
}

func TestRegister_DryRun(t *testing.T) {
	r := setupTestRegistry(t, true)
	ctx := context.Background()

	res, err := r.Register(ctx, []nodetype.NodeTypeDefinition{document()}, Options{Policy: policy.Default(), DryRun: true})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if o := res.Outcomes[0]; !res.DryRun || o.Status != StatusAdded || o.Version != 1 || o.RegistrationID != "" {
		t.Errorf("dry run result = %+v, want would-be added without a registration id", res)
	}
	if entries, err := r.List(ctx); err != nil || len(entries) != 0 {
		t.Errorf("dry run must not store anything, List() = %v, %v", entries, err)
	}
}

func TestRegister_InvalidDefinitions(t *testing.T) {
	r := setupTestRegistry(t, true)
	_, err := r.Register(context.Background(), []nodetype.NodeTypeDefinition{document(), document()}, defaultOpts())
	if !errors.HasCode(err, errors.InvalidDefinition) {
		t.Errorf("Register() error = %v, want %s", err, errors.InvalidDefinition)
	}
}

func TestList_OrderedByName(t *testing.T) {
	r := setupTestRegistry(t, true)
	mustRegister(t, r, defaultOpts(), folder(), document())

	entries, err := r.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "app:document" || entries[1].Name != "app:folder" {
		t.Errorf("List() = %+v", entries)
	}

	defs, err := r.Definitions(context.Background())
	if err != nil || len(defs) != 2 || defs[1].Name != "app:folder" {
		t.Errorf("Definitions() = %+v, %v", defs, err)
	}
}

func TestRegister_Timestamps(t *testing.T) {
	r := setupTestRegistry(t, false)
	fixed := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	mustRegister(t, r, defaultOpts(), folder())
	e, err := r.Get(context.Background(), "app:folder")
	if err != nil {
		t.Fatal(err)
	}
	if !e.RegisteredAt.Equal(fixed) {
		t.Errorf("RegisteredAt = %v, want %v", e.RegisteredAt, fixed)
	}
}

func TestUnregister(t *testing.T) {
	r := setupTestRegistry(t, true)
	ctx := context.Background()
	mustRegister(t, r, defaultOpts(), document())

	if _, err := r.Unregister(ctx, "app:document", defaultOpts()); !errors.HasCode(err, errors.RegistrationRejected) {
		t.Fatalf("Unregister() under default policy error = %v, want rejection", err)
	}
	if _, err := r.Get(ctx, "app:document"); err != nil {
		t.Fatalf("rejected unregister must keep the node type: %v", err)
	}

	out, err := r.Unregister(ctx, "app:document", Options{Policy: policy.Default(), Force: true})
	if err != nil {
		t.Fatalf("forced Unregister() error = %v", err)
	}
	if out.Status != StatusRemoved || !out.Decision.Forced {
		t.Errorf("Unregister() = %+v", out)
	}
	if _, err := r.Get(ctx, "app:document"); !errors.HasCode(err, errors.DefinitionNotFound) {
		t.Errorf("Get() after unregister error = %v", err)
	}

	history, err := r.History(ctx, "app:document")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 || history[1].Operation != "unregister" || history[1].Severity != typediff.SeverityMajor {
		t.Errorf("History() = %+v", history)
	}

	if _, err := r.Unregister(ctx, "app:missing", Options{Policy: policy.Default(), Force: true}); !errors.HasCode(err, errors.DefinitionNotFound) {
		t.Errorf("Unregister(missing) error = %v", err)
	}
}

func TestHistory_Unknown(t *testing.T) {
	r := setupTestRegistry(t, true)
	if _, err := r.History(context.Background(), "app:never"); !errors.HasCode(err, errors.DefinitionNotFound) {
		t.Errorf("History() error = %v, want %s", err, errors.DefinitionNotFound)
	}
}
