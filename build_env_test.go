package deps

import (
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func newTestMaterializer(t *testing.T, host PlatformEnum) (*Materializer, *fakeLocator) {
	t.Helper()
	loc := newTestLocator(t)
	layout := NewLayout(t.TempDir())
	return NewMaterializer(layout, NewResolver(loc), DefaultGenerator, host), loc
}

func TestMaterializeMemoizes(t *testing.T) {
	m, _ := newTestMaterializer(t, PlatformX86_64)

	a, err := m.Materialize(PlatformX86, ConfigurationRelease, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Materialize(PlatformX86, ConfigurationRelease, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("Materialize() returned a new env for the same variant")
	}
	c, err := m.Materialize(PlatformX86, ConfigurationRelease, RuntimeDynamic)
	if err != nil {
		t.Fatal(err)
	}
	if a == c || a.Dir == c.Dir {
		t.Error("variants share an env")
	}
}

func TestMaterializeInvalidVariant(t *testing.T) {
	m, _ := newTestMaterializer(t, PlatformX86_64)
	if _, err := m.Materialize("arm64", ConfigurationRelease, RuntimeStatic); err == nil {
		t.Error("Materialize() error = nil")
	}
}

func TestMaterializeMissingDependency(t *testing.T) {
	m, loc := newTestMaterializer(t, PlatformX86_64)
	delete(loc.sdks, SDKWinXP)
	_, err := m.Materialize(PlatformX86, ConfigurationDebug, RuntimeStatic)
	if !IsMissingDependency(err) {
		t.Errorf("Materialize() error = %v, want missing dependency", err)
	}
}

func TestMaterializePaths(t *testing.T) {
	m, loc := newTestMaterializer(t, PlatformX86_64)
	env, err := m.Materialize(PlatformX86_64, ConfigurationRelease, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}

	v := NewVariant(PlatformX86_64, ConfigurationRelease, RuntimeStatic)
	prefix := m.Layout.PrefixDir(v)
	msvcDir := filepath.Join(loc.vsDir, "VC", "Tools", "MSVC", testMSVCVersion)
	xp := loc.sdks[SDKWinXP]
	win10 := loc.sdks[SDKWin10]

	wantSearch := []string{
		filepath.Join(prefix, "bin"),
		m.Layout.VariantScratchDir(v),
		filepath.Join(loc.bootstrapDir, "bin"),
		filepath.Join(xp.Dir, "Bin", "x64"),
		filepath.Join(msvcDir, "bin", "Hostx64", "x64"),
	}
	if !reflect.DeepEqual(env.SearchPath, wantSearch) {
		t.Errorf("SearchPath = %v\nwant %v", env.SearchPath, wantSearch)
	}

	wantInclude := []string{
		filepath.Join(msvcDir, "include"),
		filepath.Join(msvcDir, "atlmfc", "include"),
		filepath.Join(loc.vsDir, "VC", "Auxiliary", "VS", "include"),
		filepath.Join(win10.Dir, "Include", win10.Version, "ucrt"),
		filepath.Join(xp.Dir, "Include"),
	}
	if !reflect.DeepEqual(env.IncludePath, wantInclude) {
		t.Errorf("IncludePath = %v\nwant %v", env.IncludePath, wantInclude)
	}

	wantLib := []string{
		filepath.Join(msvcDir, "lib", "x64"),
		filepath.Join(msvcDir, "atlmfc", "lib", "x64"),
		filepath.Join(loc.vsDir, "VC", "Auxiliary", "VS", "lib", "x64"),
		filepath.Join(win10.Dir, "Lib", win10.Version, "ucrt", "x64"),
		filepath.Join(xp.Dir, "Lib", "x64"),
	}
	if !reflect.DeepEqual(env.LibraryPath, wantLib) {
		t.Errorf("LibraryPath = %v\nwant %v", env.LibraryPath, wantLib)
	}

	vars := map[string]string{
		"INCLUDE":  strings.Join(wantInclude, ";"),
		"LIB":      strings.Join(wantLib, ";"),
		"CL":       "/D_USING_V110_SDK71_ /D_UNICODE /DUNICODE",
		"Platform": "x64",
		"VALAC":    "valac-0.42.exe",
		"M4":       filepath.Join(loc.bootstrapDir, "bin", "m4.exe"),
	}
	for k, want := range vars {
		if got := env.Vars[k]; got != want {
			t.Errorf("Vars[%s] = %q, want %q", k, got, want)
		}
	}
}

func TestMaterializeCrossCompile(t *testing.T) {
	m, loc := newTestMaterializer(t, PlatformX86)
	env, err := m.Materialize(PlatformX86_64, ConfigurationDebug, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}
	msvcDir := filepath.Join(loc.vsDir, "VC", "Tools", "MSVC", testMSVCVersion)
	n := len(env.SearchPath)
	if got, want := env.SearchPath[n-2], filepath.Join(msvcDir, "bin", "Hostx86", "x64"); got != want {
		t.Errorf("compiler dir = %q, want %q", got, want)
	}
	if got, want := env.SearchPath[n-1], filepath.Join(msvcDir, "bin", "Hostx86", "x86"); got != want {
		t.Errorf("host dll dir = %q, want %q", got, want)
	}

	native, err := m.Materialize(PlatformX86, ConfigurationDebug, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}
	if len(native.SearchPath) != n-1 {
		t.Errorf("native search path has %d entries, want %d", len(native.SearchPath), n-1)
	}
	if got, want := native.SearchPath[3], filepath.Join(loc.sdks[SDKWinXP].Dir, "Bin"); got != want {
		t.Errorf("x86 SDK bin dir = %q, want %q", got, want)
	}
}

func TestMaterializeWrappers(t *testing.T) {
	m, loc := newTestMaterializer(t, PlatformX86_64)
	env, err := m.Materialize(PlatformX86, ConfigurationRelease, RuntimeDynamic)
	if err != nil {
		t.Fatal(err)
	}

	rc := mustReadFile(t, env.RCWrapper)
	rcExe := filepath.Join(loc.sdks[SDKWinXP].Dir, "Bin", "rc.exe")
	if !strings.Contains(rc, `"`+rcExe+`" /D_USING_V110_SDK71_ /D_UNICODE /DUNICODE %* || SET _res=1`) {
		t.Errorf("rc.bat does not forward to rc.exe:\n%s", rc)
	}
	if !strings.HasSuffix(rc, "EXIT /B %_res%") {
		t.Errorf("rc.bat does not pass the exit code through:\n%s", rc)
	}

	pc := mustReadFile(t, env.PkgConfigWrapper)
	pcDir := filepath.Join(m.Layout.PrefixDir(env.Variant), "lib", "pkgconfig")
	if !strings.Contains(pc, "SET PKG_CONFIG_PATH="+pcDir+"\n") {
		t.Errorf("pkg-config.bat does not pin the search dir:\n%s", pc)
	}
	if !strings.Contains(pc, "pkg-config.exe\" --static %*") {
		t.Errorf("pkg-config.bat does not force --static:\n%s", pc)
	}

	script := mustReadFile(t, env.EnvScript)
	if !strings.HasPrefix(script, "@ECHO OFF\nset PATH="+strings.Join(env.SearchPath, ";")+";%PATH%\n") {
		t.Errorf("env.bat has an unexpected PATH:\n%s", script)
	}
	if !strings.Contains(script, "set Platform=x86\n") {
		t.Errorf("env.bat does not set Platform:\n%s", script)
	}
}

func TestMaterializeIsDeterministic(t *testing.T) {
	m, loc := newTestMaterializer(t, PlatformX86_64)
	env, err := m.Materialize(PlatformX86_64, ConfigurationRelease, RuntimeStatic)
	if err != nil {
		t.Fatal(err)
	}
	files := []string{env.EnvScript, env.RCWrapper, env.PkgConfigWrapper}
	var first []string
	for _, f := range files {
		first = append(first, mustReadFile(t, f))
	}

	// A fresh materializer regenerates the wrappers from scratch.
	again := NewMaterializer(m.Layout, NewResolver(loc), DefaultGenerator, PlatformX86_64)
	if _, err := again.Materialize(PlatformX86_64, ConfigurationRelease, RuntimeStatic); err != nil {
		t.Fatal(err)
	}
	for i, f := range files {
		if got := mustReadFile(t, f); got != first[i] {
			t.Errorf("%s changed between runs", filepath.Base(f))
		}
	}
}

func TestBuildEnvEnviron(t *testing.T) {
	t.Setenv("PATH", "/usr/bin")
	env := &BuildEnv{
		SearchPath: []string{`C:\a`, `C:\b`},
		Vars:       map[string]string{"LIB": "l", "INCLUDE": "i", "CL": "c"},
	}
	want := []string{`PATH=C:\a;C:\b;/usr/bin`, "CL=c", "INCLUDE=i", "LIB=l"}
	if got := env.Environ(); !reflect.DeepEqual(got, want) {
		t.Errorf("Environ() = %v, want %v", got, want)
	}
}
