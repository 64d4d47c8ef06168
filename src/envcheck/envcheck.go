// Package envcheck prepares and verifies the working environment
// before the application starts. Any problem it finds is fatal for
// startup, so callers report the error and exit.
package envcheck

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/shirou/gopsutil/disk"
	"gopkg.in/yaml.v3"

	"github.com/vizboard/vizboard/src/logging"
)

// EnvError reports an unusable environment. It names the check that
// failed so the user can fix the machine rather than the data.
type EnvError struct {
	Check string
	Msg   string
	Err   error
}

func (e *EnvError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("environment check %q failed: %s: %v", e.Check, e.Msg, e.Err)
	}
	return fmt.Sprintf("environment check %q failed: %s", e.Check, e.Msg)
}

func (e *EnvError) Unwrap() error { return e.Err }

// Manifest describes what the environment must provide. It is read
// from vizboard.yaml next to the working directory when present;
// otherwise Defaults apply.
type Manifest struct {
	DataDir       string   `yaml:"data_dir"`
	ExportDir     string   `yaml:"export_dir"`
	CacheDir      string   `yaml:"cache_dir"`
	MinFreeDiskMB uint64   `yaml:"min_free_disk_mb"`
	Tools         []string `yaml:"tools"`
}

const ManifestName = "vizboard.yaml"

// Defaults returns the manifest used when no vizboard.yaml exists.
func Defaults(base string) Manifest {
	return Manifest{
		DataDir:       filepath.Join(base, "data"),
		ExportDir:     filepath.Join(base, "exports"),
		CacheDir:      filepath.Join(base, ".cache"),
		MinFreeDiskMB: 100,
	}
}

// Load reads the manifest from dir, falling back to Defaults when the
// file is absent. A malformed manifest is an EnvError.
func Load(dir string) (Manifest, error) {
	path := filepath.Join(dir, ManifestName)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.Debugf("no %s in %s, using defaults", ManifestName, dir)
		return Defaults(dir), nil
	}
	if err != nil {
		return Manifest{}, &EnvError{Check: "manifest", Msg: "cannot read " + path, Err: err}
	}
	m := Defaults(dir)
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return Manifest{}, &EnvError{Check: "manifest", Msg: "malformed " + path, Err: err}
	}
	return m, nil
}

// Ensure creates the manifest's directories and verifies the
// environment is usable: directories writable, enough free disk, and
// any declared tools present on PATH.
func Ensure(m Manifest) error {
	for _, dir := range []string{m.DataDir, m.ExportDir, m.CacheDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &EnvError{Check: "dirs", Msg: "cannot create " + dir, Err: err}
		}
		if err := checkWritable(dir); err != nil {
			return &EnvError{Check: "dirs", Msg: dir + " is not writable", Err: err}
		}
	}
	if m.MinFreeDiskMB > 0 && m.ExportDir != "" {
		usage, err := disk.Usage(m.ExportDir)
		if err != nil {
			return &EnvError{Check: "disk", Msg: "cannot stat filesystem for " + m.ExportDir, Err: err}
		}
		freeMB := usage.Free / (1 << 20)
		if freeMB < m.MinFreeDiskMB {
			return &EnvError{
				Check: "disk",
				Msg:   fmt.Sprintf("only %d MB free under %s, need %d MB", freeMB, m.ExportDir, m.MinFreeDiskMB),
			}
		}
	}
	for _, tool := range m.Tools {
		if _, err := exec.LookPath(tool); err != nil {
			return &EnvError{Check: "tools", Msg: tool + " not found on PATH", Err: err}
		}
	}
	logging.Infof("environment ready (data=%s exports=%s)", m.DataDir, m.ExportDir)
	return nil
}

// Setup loads the manifest for dir and ensures the environment in one
// call. It is the single entry point main uses at startup.
func Setup(dir string) (Manifest, error) {
	m, err := Load(dir)
	if err != nil {
		return Manifest{}, err
	}
	if err := Ensure(m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func checkWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".envcheck-*")
	if err != nil {
		return pkgerrors.Wrap(err, "write test file")
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
