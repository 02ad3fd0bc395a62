package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/noc/vm"
	"github.com/chazu/noc/vm/dist"
)

// setupProject writes a noc.toml and an encoded unit computing 6*7 and
// printing "hi", returning the project dir and the unit path.
func setupProject(t *testing.T, toml string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "noc.toml"), []byte(toml), 0644); err != nil {
		t.Fatal(err)
	}

	u := vm.NewUnit()
	u.EmitConstant(vm.Int(6))
	u.EmitConstant(vm.Int(7))
	u.Emit(vm.OpMul)
	u.EmitConstant(vm.Str("hi"))
	u.EmitWithOperand(vm.OpCallSymbol, u.AddSymbol(vm.PrimitiveSymbol("print", "print")))
	data, err := dist.MarshalUnit(u)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "main.nocb")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return dir, path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunUnitFile(t *testing.T) {
	dir, path := setupProject(t, "[project]\nname = \"demo\"\n")
	code, out, errOut := runCLI(t, "-config", dir, path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "hi\n42\n" {
		t.Errorf("stdout = %q, want %q", out, "hi\n42\n")
	}
}

func TestRunManifestEntry(t *testing.T) {
	dir, _ := setupProject(t, "[project]\nentry = \"main.nocb\"\n")
	code, out, errOut := runCLI(t, "-config", dir)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if !strings.HasSuffix(out, "42\n") {
		t.Errorf("stdout = %q", out)
	}
}

func TestRunNoUnit(t *testing.T) {
	dir, _ := setupProject(t, "")
	code, _, errOut := runCLI(t, "-config", dir)
	if code != 1 || !strings.Contains(errOut, "no unit given") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestDisassembleFlag(t *testing.T) {
	dir, path := setupProject(t, "[project]\nname = \"demo\"\n")
	code, out, _ := runCLI(t, "-config", dir, "-d", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(out, "; === demo ===") || !strings.Contains(out, "MUL") {
		t.Errorf("listing = %q", out)
	}
	if strings.Contains(out, "hi\n") {
		t.Error("-d must not run the unit")
	}
}

func TestRunReportsVMError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "noc.toml"), nil, 0644)
	u := vm.NewUnit()
	u.EmitConstant(vm.Int(1))
	u.EmitConstant(vm.Int(0))
	u.Emit(vm.OpDiv)
	data, _ := dist.MarshalUnit(u)
	path := filepath.Join(dir, "div.nocb")
	os.WriteFile(path, data, 0644)

	code, _, errOut := runCLI(t, "-config", dir, path)
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(errOut, "DivisionByZero") || !strings.Contains(errOut, "at 0002  DIV") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestRunBadFile(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "noc.toml"), nil, 0644)
	path := filepath.Join(dir, "bad.nocb")
	os.WriteFile(path, []byte("not a unit"), 0644)

	code, _, errOut := runCLI(t, "-config", dir, path)
	if code != 1 || !strings.Contains(errOut, "not a noc unit") {
		t.Errorf("exit %d, stderr %q", code, errOut)
	}
}

func TestStoreAndRunByHash(t *testing.T) {
	dir, path := setupProject(t, "[store]\npath = \"db/units.db\"\n")

	code, out, errOut := runCLI(t, "-config", dir, "store", "put", path)
	if code != 0 {
		t.Fatalf("store put: exit %d: %s", code, errOut)
	}
	hash := strings.Fields(out)[0]

	code, out, _ = runCLI(t, "-config", dir, "store", "list")
	if code != 0 || !strings.Contains(out, "main.nocb") || !strings.HasPrefix(out, hash[:12]) {
		t.Errorf("store list: exit %d, %q", code, out)
	}

	code, out, errOut = runCLI(t, "-config", dir, "-hash", hash)
	if code != 0 {
		t.Fatalf("-hash run: exit %d: %s", code, errOut)
	}
	if out != "hi\n42\n" {
		t.Errorf("stdout = %q", out)
	}

	outPath := filepath.Join(t.TempDir(), "copy.nocb")
	if code, _, errOut = runCLI(t, "-config", dir, "store", "get", hash, outPath); code != 0 {
		t.Fatalf("store get: %s", errOut)
	}
	orig, _ := os.ReadFile(path)
	copied, _ := os.ReadFile(outPath)
	if !bytes.Equal(orig, copied) {
		t.Error("store get wrote different bytes")
	}

	if code, _, errOut = runCLI(t, "-config", dir, "store", "rm", hash); code != 0 {
		t.Fatalf("store rm: %s", errOut)
	}
	code, _, errOut = runCLI(t, "-config", dir, "-hash", hash)
	if code != 1 || !strings.Contains(errOut, "not found") {
		t.Errorf("run after rm: exit %d, %q", code, errOut)
	}
}

func TestStoreFlagPrintsHash(t *testing.T) {
	dir, path := setupProject(t, "")
	code, out, errOut := runCLI(t, "-config", dir, "-store", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(out, dist.HashBytes(data).String()+"\n") {
		t.Errorf("stdout = %q", out)
	}
	if _, err := os.Stat(filepath.Join(dir, ".noc", "units.db")); err != nil {
		t.Errorf("default store not created: %v", err)
	}
}

func TestStoreUsage(t *testing.T) {
	dir, _ := setupProject(t, "")
	if code, _, _ := runCLI(t, "-config", dir, "store"); code != 2 {
		t.Errorf("bare store: exit %d, want 2", code)
	}
	if code, _, errOut := runCLI(t, "-config", dir, "store", "frob"); code != 2 || !strings.Contains(errOut, "Unknown store subcommand") {
		t.Errorf("unknown subcommand: exit %d, %q", code, errOut)
	}
}

func TestBadFlag(t *testing.T) {
	if code, _, _ := runCLI(t, "-nope"); code != 2 {
		t.Errorf("exit %d, want 2", code)
	}
}

func TestProfileFlag(t *testing.T) {
	dir, path := setupProject(t, "")
	code, out, errOut := runCLI(t, "-config", dir, "-profile", path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, errOut)
	}
	if out != "hi\n42\n" {
		t.Errorf("stdout = %q", out)
	}
	if !strings.Contains(errOut, "Instructions: 5") || !strings.Contains(errOut, "print") {
		t.Errorf("profile report = %q", errOut)
	}
}
