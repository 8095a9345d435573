package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSandbox struct {
	name      string
	languages []string
	closed    bool
}

func (f *fakeSandbox) Name() string { return f.name }

func (f *fakeSandbox) Languages(ctx context.Context) ([]string, error) {
	return f.languages, nil
}

func (f *fakeSandbox) Execute(ctx context.Context, req ExecutionRequest) (ExecutionResult, error) {
	return ExecutionResult{Status: StatusOK, Result: ResultSuccess}, nil
}

func (f *fakeSandbox) Close() error {
	f.closed = true
	return nil
}

func TestBestForPrefersFirstEnabledSupportingBackend(t *testing.T) {
	first := &fakeSandbox{name: "first", languages: []string{"c"}}
	second := &fakeSandbox{name: "second", languages: []string{"c", "python3"}}
	reg := NewRegistry(
		Entry{Sandbox: first, Enabled: true},
		Entry{Sandbox: second, Enabled: true},
	)

	sb, err := reg.BestFor(context.Background(), "C")
	require.NoError(t, err)
	require.Equal(t, "first", sb.Name())

	sb, err = reg.BestFor(context.Background(), "python3")
	require.NoError(t, err)
	require.Equal(t, "second", sb.Name())
}

func TestBestForSkipsDisabledBackends(t *testing.T) {
	disabled := &fakeSandbox{name: "disabled", languages: []string{"python3"}}
	enabled := &fakeSandbox{name: "enabled", languages: []string{"python3"}}
	reg := NewRegistry(
		Entry{Sandbox: disabled, Enabled: false},
		Entry{Sandbox: enabled, Enabled: true},
	)

	sb, err := reg.BestFor(context.Background(), "python3")
	require.NoError(t, err)
	require.Equal(t, "enabled", sb.Name())
}

func TestBestForSingleBackendSkipsLanguageCheck(t *testing.T) {
	only := &fakeSandbox{name: "only", languages: []string{"c"}}
	reg := NewRegistry(Entry{Sandbox: only, Enabled: true})

	// Unsupported language still selects the lone backend.
	sb, err := reg.BestFor(context.Background(), "cobol")
	require.NoError(t, err)
	require.Equal(t, "only", sb.Name())
}

func TestBestForNoBackends(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.BestFor(context.Background(), "python3")
	require.Error(t, err)

	reg = NewRegistry(
		Entry{Sandbox: &fakeSandbox{name: "a", languages: []string{"c"}}, Enabled: true},
		Entry{Sandbox: &fakeSandbox{name: "b", languages: []string{"java"}}, Enabled: true},
	)
	_, err = reg.BestFor(context.Background(), "prolog")
	require.Error(t, err)
}

func TestRegistryCloseClosesAll(t *testing.T) {
	a := &fakeSandbox{name: "a"}
	b := &fakeSandbox{name: "b"}
	reg := NewRegistry(
		Entry{Sandbox: a, Enabled: true},
		Entry{Sandbox: b, Enabled: false},
	)
	require.NoError(t, reg.Close())
	require.True(t, a.closed)
	require.True(t, b.closed)
}

func TestProgNameJavaMainClass(t *testing.T) {
	src := `
public class Sqr {
    public static void main(String[] args) {
        System.out.println(7 * 7);
    }
}`
	require.Equal(t, "Sqr.java", progName(src, "java"))
	require.Equal(t, "__tester__.python3", progName("print(1)", "python3"))
	require.Equal(t, "prog.java", progName("class lowercase {}", "java"))
}
