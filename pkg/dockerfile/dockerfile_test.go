// SPDX-License-Identifier: MPL-2.0

package dockerfile_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/mayhemheroes/modus/internal/testutil/modusfiletest"
	"github.com/mayhemheroes/modus/pkg/buildplan"
	"github.com/mayhemheroes/modus/pkg/dockerfile"
	"github.com/mayhemheroes/modus/pkg/sld"
)

func compile(t *testing.T, src, query string) ([]*sld.Derivation, *buildplan.Plan) {
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
	return ds, plan
}

func TestWrite_AppProduction(t *testing.T) {
	t.Parallel()

	_, plan := compile(t, modusfiletest.App, `app("ubuntu:18.04", "1.2.5", "production")`)
	var buf bytes.Buffer
	if err := dockerfile.Write(&buf, plan); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	want := `# syntax=docker/dockerfile:1

# app_4: app("ubuntu:18.04", "1.2.5", "production")

FROM ubuntu:18.04 AS install_python_0
RUN apt-get update
RUN apt-get install -y python3.7

FROM install_python_0 AS library_python_1
RUN pip install aws-cdk-lib==1.2.5

FROM library_python_1 AS dependencies_2
COPY requirements.txt /app/requirements.txt
RUN pip install -r /app/requirements.txt

FROM library_python_1 AS build_3
COPY . /src
RUN make -C /src build

FROM dependencies_2 AS app_4
COPY --from=build_3 /src/dist /app/dist
RUN chmod +x /app/dist/app
`
	if got := buf.String(); got != want {
		t.Errorf("Write() mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestWrite_FreeModeHasTwoTargets(t *testing.T) {
	t.Parallel()

	_, plan := compile(t, modusfiletest.App, `app("ubuntu:18.04", "1.2.5", mode)`)
	var buf bytes.Buffer
	if err := dockerfile.Write(&buf, plan, dockerfile.WithSyntax("")); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()

	if strings.HasPrefix(out, "# syntax=") {
		t.Error("syntax header should be omitted")
	}
	for _, line := range []string{
		`# app_5: app("ubuntu:18.04", "1.2.5", "development")`,
		`# app_6: app("ubuntu:18.04", "1.2.5", "production")`,
		"FROM dependencies_2 AS app_5",
		"FROM dependencies_2 AS app_6",
		"COPY --from=build_3 /src/dist /app/dist",
		"COPY --from=build_4 /src/dist /app/dist",
	} {
		if !strings.Contains(out, line+"\n") {
			t.Errorf("output is missing %q:\n%s", line, out)
		}
	}
	if n := strings.Count(out, " AS library_python_"); n != 1 {
		t.Errorf("library_python defined %d times, want 1", n)
	}
	if strings.Contains(out, "${") {
		t.Errorf("output has residual placeholders:\n%s", out)
	}
}

func TestInstruction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   buildplan.Instruction
		want string
	}{
		{"run", buildplan.Instruction{Op: buildplan.OpRun, Args: []string{"make"}}, "RUN make"},
		{
			"multi-line run",
			buildplan.Instruction{Op: buildplan.OpRun, Args: []string{"set -e\nmake\n"}},
			"RUN <<EOF\nset -e\nmake\nEOF",
		},
		{
			"heredoc delimiter collision",
			buildplan.Instruction{Op: buildplan.OpRun, Args: []string{"cat <<EOF\nx\nEOF"}},
			"RUN <<EOF_\ncat <<EOF\nx\nEOF\nEOF_",
		},
		{"copy", buildplan.Instruction{Op: buildplan.OpCopy, Args: []string{".", "/src"}}, "COPY . /src"},
		{
			"copy from stage",
			buildplan.Instruction{Op: buildplan.OpCopy, Args: []string{"/out", "/bin/app"}, From: "build_0"},
			"COPY --from=build_0 /out /bin/app",
		},
		{
			"copy with spaces",
			buildplan.Instruction{Op: buildplan.OpCopy, Args: []string{"my file", "/data/"}},
			`COPY ["my file", "/data/"]`,
		},
		{"env", buildplan.Instruction{Op: buildplan.OpEnv, Args: []string{"MODE", "prod"}}, "ENV MODE=prod"},
		{"env with spaces", buildplan.Instruction{Op: buildplan.OpEnv, Args: []string{"MSG", `say "hi"`}}, `ENV MSG="say \"hi\""`},
		{"env empty", buildplan.Instruction{Op: buildplan.OpEnv, Args: []string{"EMPTY", ""}}, `ENV EMPTY=""`},
		{"path", buildplan.Instruction{Op: buildplan.OpEnv, Args: []string{"PATH", "$PATH:/opt/bin"}}, "ENV PATH=$PATH:/opt/bin"},
		{"arg", buildplan.Instruction{Op: buildplan.OpArg, Args: []string{"VERSION"}}, "ARG VERSION"},
		{"arg default", buildplan.Instruction{Op: buildplan.OpArg, Args: []string{"VERSION", "1.0"}}, "ARG VERSION=1.0"},
		{"label", buildplan.Instruction{Op: buildplan.OpLabel, Args: []string{"maintainer", "ops team"}}, `LABEL maintainer="ops team"`},
		{"workdir", buildplan.Instruction{Op: buildplan.OpWorkdir, Args: []string{"/app"}}, "WORKDIR /app"},
		{"user", buildplan.Instruction{Op: buildplan.OpUser, Args: []string{"nobody"}}, "USER nobody"},
		{
			"entrypoint exec form",
			buildplan.Instruction{Op: buildplan.OpEntrypoint, Args: []string{"curl -s localhost"}},
			`ENTRYPOINT ["curl", "-s", "localhost"]`,
		},
		{
			"cmd with quoted word",
			buildplan.Instruction{Op: buildplan.OpCmd, Args: []string{`sh -c 'echo $HOME'`}},
			`CMD ["sh", "-c", "echo $HOME"]`,
		},
		{
			"cmd needing a shell",
			buildplan.Instruction{Op: buildplan.OpCmd, Args: []string{"echo $HOME && sleep 1"}},
			"CMD echo $HOME && sleep 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := dockerfile.Instruction(tt.in); got != tt.want {
				t.Errorf("Instruction() = %q, want %q", got, tt.want)
			}
		})
	}
}
