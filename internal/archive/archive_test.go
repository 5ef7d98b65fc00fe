package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/mcdonaldj/rotlog/internal/adapters/osfs"
	"github.com/mcdonaldj/rotlog/internal/adapters/ziparchiver"
	"github.com/mcdonaldj/rotlog/internal/logfile"
	"github.com/mcdonaldj/rotlog/internal/mocks"
	"github.com/mcdonaldj/rotlog/internal/ports"
	"github.com/mcdonaldj/rotlog/internal/roller"
)

const (
	logDir      = "/logs"
	scratchRoot = "/tmp/rotlog"
)

var layout = logfile.Layout{Name: "Test", Dir: logDir}

func newMockManager() (*Manager, *mocks.MockFileSystem, *mocks.MockArchiver) {
	mockFS := mocks.NewMockFileSystem()
	archiver := mocks.NewMockArchiver(mockFS)
	m := New(mockFS, archiver, roller.New(mockFS, nil), scratchRoot, nil)
	return m, mockFS, archiver
}

// numberedOnDisk returns the loose numbered files in the log directory.
func numberedOnDisk(t *testing.T, mockFS *mocks.MockFileSystem) []string {
	t.Helper()
	refs, err := logfile.ListNumbered(mockFS, logDir, layout.Name)
	if err != nil {
		t.Fatalf("ListNumbered failed: %v", err)
	}
	var names []string
	for _, r := range refs {
		names = append(names, filepath.Base(r.Path()))
	}
	return names
}

func TestRotateFirstArchive(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	mockFS.Files[layout.BasePath()] = []byte("current")
	mockFS.Files[layout.NumberedPath(logDir, 1)] = []byte("older")

	rotated, err := m.Rotate(layout, roller.Retention{MaxCount: 5})
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if !rotated {
		t.Error("first archived rotation should report true")
	}

	expected := []string{"Test.1.log", "Test.2.log"}
	if got := archiver.Members(layout.ArchivePath()); !reflect.DeepEqual(got, expected) {
		t.Errorf("archive members = %v, expected %v", got, expected)
	}
	if names := numberedOnDisk(t, mockFS); len(names) != 0 {
		t.Errorf("numbered files left on disk: %v", names)
	}
	if mockFS.Exists(layout.BasePath()) {
		t.Error("base file should have been rotated away")
	}

	content, _ := archiver.ReadFile(layout.ArchivePath(), "Test.1.log")
	if string(content) != "current" {
		t.Errorf("Test.1.log = %q, expected the former base file", content)
	}
	content, _ = archiver.ReadFile(layout.ArchivePath(), "Test.2.log")
	if string(content) != "older" {
		t.Errorf("Test.2.log = %q, expected the former Test.1.log", content)
	}
	if len(archiver.CreateCalls) != 0 || len(archiver.ExtractCalls) != 0 {
		t.Error("first rotation should only append")
	}
}

func TestRotateRepacksExistingArchive(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	archiver.Archives[layout.ArchivePath()] = map[string][]byte{
		"Test.1.log": []byte("gen1"),
		"Test.2.log": []byte("gen2"),
	}
	mockFS.Files[layout.ArchivePath()] = []byte("zip")
	mockFS.Files[layout.BasePath()] = []byte("current")

	rotated, err := m.Rotate(layout, roller.Retention{MaxCount: 5})
	if err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	if !rotated {
		t.Error("Rotate should report the roller's outcome")
	}

	expected := map[string][]byte{
		"Test.1.log": []byte("current"),
		"Test.2.log": []byte("gen1"),
		"Test.3.log": []byte("gen2"),
	}
	if got := archiver.Archives[layout.ArchivePath()]; !reflect.DeepEqual(got, expected) {
		t.Errorf("archive = %v, expected %v", got, expected)
	}

	scratch := m.ScratchDir(layout)
	if scratch != filepath.Join(scratchRoot, "Test") {
		t.Errorf("ScratchDir = %q", scratch)
	}
	for path := range mockFS.Files {
		if strings.HasPrefix(path, scratch) {
			t.Errorf("scratch file left behind: %s", path)
		}
	}
	if len(archiver.CreateCalls) != 1 || archiver.CreateCalls[0].SourceDir != scratch {
		t.Errorf("CreateCalls = %v, expected one repack of %s", archiver.CreateCalls, scratch)
	}
}

func TestRotateArchiveRetention(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	ret := roller.Retention{MaxCount: 3}

	for i := 1; i <= 6; i++ {
		mockFS.Files[layout.BasePath()] = []byte(fmt.Sprintf("write%d", i))
		if _, err := m.Rotate(layout, ret); err != nil {
			t.Fatalf("rotation %d failed: %v", i, err)
		}

		members := archiver.Members(layout.ArchivePath())
		if len(members) > ret.MaxCount {
			t.Fatalf("rotation %d: %d members exceed retention %d", i, len(members), ret.MaxCount)
		}
		for j, name := range members {
			if name != logfile.NumberedName(layout.Name, j+1) {
				t.Fatalf("rotation %d: members %v are not contiguous", i, members)
			}
		}
		if names := numberedOnDisk(t, mockFS); len(names) != 0 {
			t.Fatalf("rotation %d: numbered files on disk: %v", i, names)
		}
	}

	content, _ := archiver.ReadFile(layout.ArchivePath(), "Test.1.log")
	if string(content) != "write6" {
		t.Errorf("Test.1.log = %q, expected the latest rotation", content)
	}
	content, _ = archiver.ReadFile(layout.ArchivePath(), "Test.3.log")
	if string(content) != "write4" {
		t.Errorf("Test.3.log = %q, expected write4", content)
	}
}

func TestRotateClearsStaleScratch(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	archiver.Archives[layout.ArchivePath()] = map[string][]byte{"Test.1.log": []byte("gen1")}
	mockFS.Files[layout.ArchivePath()] = []byte("zip")
	mockFS.Files[layout.BasePath()] = []byte("current")
	// Left over from an interrupted run
	mockFS.Files[filepath.Join(scratchRoot, "Test", "Test.4.log")] = []byte("stale")

	if _, err := m.Rotate(layout, roller.Retention{MaxCount: 5}); err != nil {
		t.Fatalf("Rotate failed: %v", err)
	}
	expected := []string{"Test.1.log", "Test.2.log"}
	if got := archiver.Members(layout.ArchivePath()); !reflect.DeepEqual(got, expected) {
		t.Errorf("archive members = %v, expected %v", got, expected)
	}
}

func TestRotateErrorsPropagate(t *testing.T) {
	tests := []struct {
		name   string
		method string
		setup  func(*mocks.MockFileSystem, *mocks.MockArchiver)
		errMsg string
	}{
		{
			name:   "extract",
			method: "Extract",
			setup:  withArchive,
			errMsg: "extracting",
		},
		{
			name:   "repack",
			method: "Create",
			setup:  withArchive,
			errMsg: "repacking",
		},
		{
			name:   "append",
			method: "Append",
			setup:  func(*mocks.MockFileSystem, *mocks.MockArchiver) {},
			errMsg: "archiving",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, mockFS, archiver := newMockManager()
			mockFS.Files[layout.BasePath()] = []byte("current")
			tt.setup(mockFS, archiver)
			cause := errors.New("disk full")
			archiver.Errors[tt.method] = cause

			rotated, err := m.Rotate(layout, roller.Retention{MaxCount: 5})
			if err == nil {
				t.Fatal("Rotate should fail")
			}
			if rotated {
				t.Error("failed rotation should not report true")
			}
			if !errors.Is(err, cause) {
				t.Errorf("error should wrap the cause, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("error %q should contain %q", err, tt.errMsg)
			}
		})
	}
}

func withArchive(mockFS *mocks.MockFileSystem, archiver *mocks.MockArchiver) {
	archiver.Archives[layout.ArchivePath()] = map[string][]byte{"Test.1.log": []byte("gen1")}
	mockFS.Files[layout.ArchivePath()] = []byte("zip")
}

func TestRotateRollErrorLeavesArchive(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	withArchive(mockFS, archiver)
	mockFS.Files[layout.BasePath()] = []byte("current")
	mockFS.Errors[layout.BasePath()] = errors.New("locked")

	if _, err := m.Rotate(layout, roller.Retention{MaxCount: 5}); err == nil {
		t.Fatal("Rotate should fail when the base file cannot be moved")
	}
	if len(archiver.CreateCalls) != 0 {
		t.Error("archive should not be repacked after a failed roll")
	}
	if got := archiver.Members(layout.ArchivePath()); !reflect.DeepEqual(got, []string{"Test.1.log"}) {
		t.Errorf("archive members = %v, expected it untouched", got)
	}
}

func TestHistory(t *testing.T) {
	m, mockFS, archiver := newMockManager()
	mockFS.Files[layout.BasePath()] = []byte("live")
	mockFS.Files[layout.NumberedPath(logDir, 1)] = []byte("loose")
	archiver.Archives[layout.ArchivePath()] = map[string][]byte{
		"Test.2.log": []byte("two"),
		"Test.1.log": []byte("one"),
		"README":     []byte("ignored"),
	}
	mockFS.Files[layout.ArchivePath()] = []byte("zip")

	gens, err := m.History(layout)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}

	expected := []ports.Generation{
		{Name: "Test.log", Sequence: 0, Size: 4, Location: ports.LocationDisk},
		{Name: "Test.1.log", Sequence: 1, Size: 5, Location: ports.LocationDisk},
		{Name: "Test.1.log", Sequence: 1, Size: 3, Location: ports.LocationArchive},
		{Name: "Test.2.log", Sequence: 2, Size: 3, Location: ports.LocationArchive},
	}
	if !reflect.DeepEqual(gens, expected) {
		t.Errorf("History = %+v, expected %+v", gens, expected)
	}

	for _, g := range gens {
		data, err := m.ReadGeneration(layout, g)
		if err != nil {
			t.Fatalf("ReadGeneration(%+v) failed: %v", g, err)
		}
		if int64(len(data)) != g.Size {
			t.Errorf("ReadGeneration(%s in %s) = %q", g.Name, g.Location, data)
		}
	}

	if _, err := m.ReadGeneration(layout, ports.Generation{Name: "Test.log", Location: "cloud"}); err == nil {
		t.Error("ReadGeneration should reject unknown locations")
	}
}

func TestHistoryEmpty(t *testing.T) {
	m, _, _ := newMockManager()
	gens, err := m.History(layout)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(gens) != 0 {
		t.Errorf("History = %v, expected none", gens)
	}
}

func TestRotateOnDisk(t *testing.T) {
	tempDir := t.TempDir()
	dir := filepath.Join(tempDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	diskLayout := logfile.Layout{Name: "app", Dir: dir}
	fsys := osfs.New()
	m := New(fsys, ziparchiver.New(), roller.New(fsys, nil), filepath.Join(tempDir, "scratch"), nil)
	ret := roller.Retention{MaxCount: 2}

	for i := 1; i <= 3; i++ {
		if err := os.WriteFile(diskLayout.BasePath(), []byte(fmt.Sprintf("round %d\n", i)), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		rotated, err := m.Rotate(diskLayout, ret)
		if err != nil {
			t.Fatalf("rotation %d failed: %v", i, err)
		}
		if !rotated {
			t.Errorf("rotation %d should report true", i)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "app-archive.zip" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("log dir = %v, expected only the archive", names)
	}
	if _, err := os.Stat(m.ScratchDir(diskLayout)); !os.IsNotExist(err) {
		t.Error("scratch directory should be removed after repack")
	}

	gens, err := m.History(diskLayout)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(gens) != 2 {
		t.Fatalf("History = %+v, expected 2 archived generations", gens)
	}
	want := map[string]string{"app.1.log": "round 3\n", "app.2.log": "round 2\n"}
	for _, g := range gens {
		if g.Location != ports.LocationArchive {
			t.Errorf("%s should be archived", g.Name)
		}
		data, err := m.ReadGeneration(diskLayout, g)
		if err != nil {
			t.Fatalf("ReadGeneration failed: %v", err)
		}
		if string(data) != want[g.Name] {
			t.Errorf("%s = %q, expected %q", g.Name, data, want[g.Name])
		}
	}
}
