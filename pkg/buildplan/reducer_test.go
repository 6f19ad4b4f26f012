// SPDX-License-Identifier: MPL-2.0

package buildplan_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/mayhemheroes/modus/internal/testutil/modusfiletest"
	"github.com/mayhemheroes/modus/pkg/buildplan"
	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/sld"
)

func reduce(t *testing.T, src, query string) *buildplan.Plan {
	t.Helper()
	db := modusfiletest.MustParse(t, src)
	goal := modusfiletest.MustQuery(t, db, query)
	ds, err := sld.NewEngine(db).Collect(context.Background(), goal)
	if err != nil {
		t.Fatalf("Collect(%s) error: %v", query, err)
	}
	r := buildplan.NewReducer()
	for _, d := range ds {
		if err := r.Add(d); err != nil {
			t.Fatalf("Add(%s) error: %v", d.Goal, err)
		}
	}
	plan, err := r.Plan()
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	return plan
}

func stageIDs(p *buildplan.Plan) []string {
	ids := make([]string, len(p.Stages))
	for i, s := range p.Stages {
		ids[i] = s.ID
	}
	return ids
}

func mustStage(t *testing.T, p *buildplan.Plan, id string) *buildplan.Stage {
	t.Helper()
	s, ok := p.Stage(id)
	if !ok {
		t.Fatalf("stage %s not found in %v", id, stageIDs(p))
	}
	return s
}

func TestReducer_AppProduction(t *testing.T) {
	t.Parallel()

	plan := reduce(t, modusfiletest.App, `app("ubuntu:18.04", "1.2.5", "production")`)

	want := []string{"install_python_0", "library_python_1", "dependencies_2", "build_3", "app_4"}
	if got := stageIDs(plan); !slices.Equal(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}

	install := mustStage(t, plan, "install_python_0")
	if install.From != "ubuntu:18.04" || install.Parent != "" {
		t.Errorf("install_python_0 From=%q Parent=%q, want the inlined base image", install.From, install.Parent)
	}
	if len(install.Instructions) != 2 || install.Instructions[0].Args[0] != "apt-get update" {
		t.Errorf("install_python_0 instructions = %+v", install.Instructions)
	}

	for _, id := range []string{"dependencies_2", "build_3"} {
		if s := mustStage(t, plan, id); s.Parent != "library_python_1" {
			t.Errorf("%s parent = %q, want library_python_1", id, s.Parent)
		}
	}

	app := mustStage(t, plan, "app_4")
	if app.From != "dependencies_2" {
		t.Errorf("app_4 From = %q, want dependencies_2", app.From)
	}
	copyIn := app.Instructions[0]
	if copyIn.Op != buildplan.OpCopy || copyIn.From != "build_3" || !slices.Equal(copyIn.Args, []string{"/src/dist", "/app/dist"}) {
		t.Errorf("app_4 first instruction = %+v, want COPY --from=build_3 /src/dist /app/dist", copyIn)
	}
	if !app.Output {
		t.Error("app_4 should be marked as output")
	}
	if !slices.Equal(app.Dependencies(plan), []string{"dependencies_2", "build_3"}) {
		t.Errorf("app_4 dependencies = %v", app.Dependencies(plan))
	}

	if len(plan.Outputs) != 1 || plan.Outputs[0].Stage != "app_4" ||
		plan.Outputs[0].Goal != `app("ubuntu:18.04", "1.2.5", "production")` {
		t.Errorf("outputs = %+v", plan.Outputs)
	}

	wantLevels := [][]string{{"install_python_0"}, {"library_python_1"}, {"dependencies_2", "build_3"}, {"app_4"}}
	levels := plan.Levels()
	if len(levels) != len(wantLevels) {
		t.Fatalf("levels = %v, want %v", levels, wantLevels)
	}
	for i := range wantLevels {
		if !slices.Equal(levels[i], wantLevels[i]) {
			t.Errorf("level %d = %v, want %v", i, levels[i], wantLevels[i])
		}
	}
}

func TestReducer_FreeModeSharesStages(t *testing.T) {
	t.Parallel()

	plan := reduce(t, modusfiletest.App, `app("ubuntu:18.04", "1.2.5", mode)`)

	want := []string{
		"install_python_0", "library_python_1",
		"dependencies_2", "build_3", "build_4",
		"app_5", "app_6",
	}
	if got := stageIDs(plan); !slices.Equal(got, want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	if len(plan.Outputs) != 2 {
		t.Fatalf("outputs = %+v, want 2", plan.Outputs)
	}
	if plan.Outputs[0].Stage != "app_5" || plan.Outputs[1].Stage != "app_6" {
		t.Errorf("outputs = %+v", plan.Outputs)
	}
	for _, id := range []string{"app_5", "app_6"} {
		if s := mustStage(t, plan, id); s.Parent != "dependencies_2" {
			t.Errorf("%s parent = %q, want the shared dependencies_2", id, s.Parent)
		}
	}
	if got := mustStage(t, plan, "app_5").Instructions[0].From; got != "build_3" {
		t.Errorf("development app copies from %q, want build_3", got)
	}
	if got := mustStage(t, plan, "build_3").Args[2]; got != "development" {
		t.Errorf("build_3 mode = %q, want development", got)
	}
}

func TestReducer_InWorkdir(t *testing.T) {
	t.Parallel()

	src := modusfiletest.New(
		modusfiletest.WithClause(`base :- from("alpine:3.19").`),
		modusfiletest.WithClause(`tools :- base, (run("make"), copy("out/", "bin/"))::in_workdir("/src"), workdir("sub").`),
	)
	plan := reduce(t, src, `tools`)

	if got := stageIDs(plan); !slices.Equal(got, []string{"base_0", "tools_1"}) {
		t.Fatalf("stages = %v", got)
	}
	tools := mustStage(t, plan, "tools_1")
	want := []buildplan.Instruction{
		{Op: buildplan.OpRun, Args: []string{"cd /src && make"}},
		{Op: buildplan.OpCopy, Args: []string{"out/", "/src/bin/"}},
		{Op: buildplan.OpWorkdir, Args: []string{"sub"}},
	}
	if len(tools.Instructions) != len(want) {
		t.Fatalf("instructions = %+v", tools.Instructions)
	}
	for i := range want {
		got := tools.Instructions[i]
		if got.Op != want[i].Op || !slices.Equal(got.Args, want[i].Args) || got.From != "" {
			t.Errorf("instruction %d = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestReducer_ImageOperators(t *testing.T) {
	t.Parallel()

	src := modusfiletest.New(
		modusfiletest.WithClause(`app :- (from("alpine:3.19"), run("apk add curl"))::set_env("MODE", "prod")::set_entrypoint("curl -s localhost").`),
	)
	plan := reduce(t, src, `app`)

	if got := stageIDs(plan); !slices.Equal(got, []string{"image_0", "image_1", "app_2"}) {
		t.Fatalf("stages = %v", got)
	}
	env := mustStage(t, plan, "image_0")
	if env.From != "alpine:3.19" || len(env.Instructions) != 2 || env.Instructions[1].Op != buildplan.OpEnv {
		t.Errorf("image_0 = %+v", env)
	}
	entry := mustStage(t, plan, "image_1")
	if entry.Parent != "image_0" || entry.Instructions[0].Op != buildplan.OpEntrypoint {
		t.Errorf("image_1 = %+v", entry)
	}
	if app := mustStage(t, plan, "app_2"); app.Parent != "image_1" || len(app.Instructions) != 0 {
		t.Errorf("app_2 = %+v", app)
	}
}

func TestReducer_CopyFromInlineImage(t *testing.T) {
	t.Parallel()

	src := modusfiletest.New(
		modusfiletest.WithClause(`app :-
    from("alpine:3.19"),
    (from("golang:1.22"), run("go build -o /out/app ."))::copy("/out/app", "/usr/bin/app"),
    (from("busybox:1.36"))::copy("/bin/busybox", "/bin/busybox").`),
	)
	plan := reduce(t, src, `app`)

	if got := stageIDs(plan); !slices.Equal(got, []string{"image_0", "app_1"}) {
		t.Fatalf("stages = %v", got)
	}
	if got := mustStage(t, plan, "image_0").From; got != "golang:1.22" {
		t.Errorf("image_0 From = %q, want golang:1.22", got)
	}
	app := mustStage(t, plan, "app_1")
	if app.From != "alpine:3.19" || app.Parent != "" {
		t.Errorf("app_1 From=%q Parent=%q", app.From, app.Parent)
	}
	if app.Instructions[0].From != "image_0" || app.Instructions[1].From != "busybox:1.36" {
		t.Errorf("copy sources = %q, %q", app.Instructions[0].From, app.Instructions[1].From)
	}
	if app.Level != 1 {
		t.Errorf("app_1 level = %d, want 1", app.Level)
	}
}

func TestReducer_BaseImageAsOutput(t *testing.T) {
	t.Parallel()

	plan := reduce(t, `unused :- from("scratch").`, `from("alpine:3.19")`)

	if got := stageIDs(plan); !slices.Equal(got, []string{"from_0"}) {
		t.Fatalf("stages = %v", got)
	}
	if s := mustStage(t, plan, "from_0"); s.From != "alpine:3.19" || !s.Output {
		t.Errorf("from_0 = %+v", s)
	}
}

func TestReducer_RejectsNonImageQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		src   string
		query string
	}{
		{"layer", `setup :- run("make").`, `setup`},
		{"logical", `ok("a").`, `ok("a")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db := modusfiletest.MustParse(t, tt.src)
			goal := modusfiletest.MustQuery(t, db, tt.query)
			ds, err := sld.NewEngine(db).Collect(context.Background(), goal)
			if err != nil {
				t.Fatalf("Collect() error: %v", err)
			}
			err = buildplan.NewReducer().Add(ds[0])
			if !errors.Is(err, buildplan.ErrMalformedStage) {
				t.Fatalf("Add() error = %v, want ErrMalformedStage", err)
			}
		})
	}
}

func TestReducer_InconsistentMerge(t *testing.T) {
	t.Parallel()

	derivation := func(cmd string) *sld.Derivation {
		goal := logic.NewAtom("app")
		goal.Kind = logic.KindImage
		return &sld.Derivation{
			Goal: goal,
			Root: &sld.Node{Kind: logic.KindImage, Atom: goal, Children: []*sld.Node{
				{Kind: logic.KindImage, Atom: logic.NewAtom("from", logic.Constant("alpine:3.19")), Builtin: true, Clause: -1},
				{Kind: logic.KindLayer, Atom: logic.NewAtom("run", logic.Constant(cmd)), Builtin: true, Clause: -1},
			}},
		}
	}

	r := buildplan.NewReducer()
	if err := r.Add(derivation("make")); err != nil {
		t.Fatalf("first Add() error: %v", err)
	}
	if err := r.Add(derivation("make")); err != nil {
		t.Fatalf("identical Add() error: %v", err)
	}
	err := r.Add(derivation("make install"))
	var mergeErr *buildplan.InconsistentMergeError
	if !errors.As(err, &mergeErr) {
		t.Fatalf("Add() error = %v, want *InconsistentMergeError", err)
	}
	if !errors.Is(err, buildplan.ErrInconsistentMerge) || mergeErr.Key != "app" {
		t.Errorf("unexpected merge error: %+v", mergeErr)
	}

	plan, err := r.Plan()
	if err != nil {
		t.Fatalf("Plan() error: %v", err)
	}
	if len(plan.Outputs) != 1 {
		t.Errorf("outputs = %+v, want the identical goal once", plan.Outputs)
	}
}
