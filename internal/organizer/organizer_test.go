package organizer_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"syscall"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"organize/internal/datetaken"
	"organize/internal/failures"
	"organize/internal/logging"
	"organize/internal/mediafile"
	"organize/internal/organizer"
	"organize/internal/placement"
	"organize/internal/runlog"
	"organize/internal/testsupport"
)

const julyFourth = "2023:07:04 10:15:00"

func runOrganizer(t *testing.T, source, dest string, mode placement.Mode, opts ...testsupport.ConfigOption) organizer.Summary {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	org := organizer.New(cfg, logging.NewNop())
	t.Cleanup(func() { _ = org.Close() })
	summary, err := org.Run(context.Background(), source, dest, mode)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return summary
}

func sortedLines(t *testing.T, path string) []string {
	t.Helper()
	lines := testsupport.ReadLines(t, path)
	sort.Strings(lines)
	return lines
}

func TestRunPlacesJPEGByDateTaken(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	photo := filepath.Join(source, "2019", "backup", "deep", "beach.jpg")
	testsupport.WriteExifJPEG(t, photo, julyFourth)

	summary := runOrganizer(t, source, dest, placement.ModeCopy)

	if !testsupport.Exists(t, filepath.Join(dest, "2023", "07", "beach.jpg")) {
		t.Fatal("expected beach.jpg under 2023/07")
	}
	if !testsupport.Exists(t, photo) {
		t.Fatal("copy mode must keep the source file")
	}
	if summary.Files != 1 || summary.Placed != 1 || summary.Copied() != 1 || summary.Moved() != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.ByKind[mediafile.KindImage] != 1 {
		t.Fatalf("expected one image in kind breakdown, got %v", summary.ByKind)
	}
	if summary.RunID == "" || summary.Bytes == 0 {
		t.Fatalf("expected run id and byte count, got %+v", summary)
	}
}

func TestRunPlacesMP4ByCreationTime(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	testsupport.WriteMP4(t, filepath.Join(source, "clip.mp4"), time.Date(2021, time.December, 31, 23, 0, 0, 0, time.UTC))

	summary := runOrganizer(t, source, dest, placement.ModeCopy)

	if !testsupport.Exists(t, filepath.Join(dest, "2021", "12", "clip.mp4")) {
		t.Fatal("expected clip.mp4 under 2021/12")
	}
	if summary.ByKind[mediafile.KindVideo] != 1 {
		t.Fatalf("expected one video, got %v", summary.ByKind)
	}
}

func TestRunLogsSecondSameNamedFileAsDuplicate(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	first := filepath.Join(source, "phone", "IMG_1.jpg")
	second := filepath.Join(source, "camera", "IMG_1.jpg")
	testsupport.WriteExifJPEG(t, first, julyFourth)
	testsupport.WriteExifJPEG(t, second, "2023:07:20 08:00:00")

	summary := runOrganizer(t, source, dest, placement.ModeMove)

	if summary.Placed != 1 || summary.Duplicates != 1 {
		t.Fatalf("expected one placed and one duplicate, got %+v", summary)
	}
	dups := testsupport.ReadLines(t, filepath.Join(dest, runlog.DuplicateFileName))
	if len(dups) != 1 {
		t.Fatalf("expected one duplicate entry, got %v", dups)
	}
	if dups[0] != first && dups[0] != second {
		t.Fatalf("duplicate log should hold a source path, got %q", dups[0])
	}
	if !testsupport.Exists(t, dups[0]) {
		t.Fatalf("duplicate %s must remain at its source location", dups[0])
	}
	if !testsupport.Exists(t, filepath.Join(dest, "2023", "07", "IMG_1.jpg")) {
		t.Fatal("expected the first IMG_1.jpg under 2023/07")
	}
}

func TestRunLogsUnsupportedAndUndatedFiles(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	mkv := filepath.Join(source, "videos", "holiday.mkv")
	notes := filepath.Join(source, "notes.txt")
	plain := filepath.Join(source, "scan.jpg")
	testsupport.WriteFile(t, mkv, 2048)
	testsupport.WriteFile(t, notes, 16)
	testsupport.WritePlainJPEG(t, plain)

	summary := runOrganizer(t, source, dest, placement.ModeMove)

	got := sortedLines(t, filepath.Join(dest, runlog.NoMetadataFileName))
	want := []string{plain, notes, mkv}
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("no-metadata log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("no-metadata log = %v, want %v", got, want)
		}
	}
	for _, path := range want {
		if !testsupport.Exists(t, path) {
			t.Fatalf("%s must never be moved", path)
		}
	}
	if summary.NoMetadata != 3 || summary.Placed != 0 || summary.Skipped() != 3 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	entries, err := os.ReadDir(dest)
	if err != nil {
		t.Fatalf("read dest: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("no dated directory expected, found %s", entry.Name())
		}
	}
}

func TestRunMoveCarriesSidecar(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	photo := filepath.Join(source, "IMG_0042.jpg")
	sidecar := filepath.Join(source, "IMG_0042.AAE")
	testsupport.WriteExifJPEG(t, photo, julyFourth)
	testsupport.WriteBytes(t, sidecar, []byte("<plist/>"))

	summary := runOrganizer(t, source, dest, placement.ModeMove)

	targetDir := filepath.Join(dest, "2023", "07")
	for _, name := range []string{"IMG_0042.jpg", "IMG_0042.AAE"} {
		if !testsupport.Exists(t, filepath.Join(targetDir, name)) {
			t.Fatalf("expected %s in %s", name, targetDir)
		}
	}
	if testsupport.Exists(t, photo) || testsupport.Exists(t, sidecar) {
		t.Fatal("move mode should remove the photo and its sidecar from the source")
	}
	if summary.Files != 1 || summary.Sidecars != 1 || summary.Moved() != 1 {
		t.Fatalf("sidecar must travel with its photo, not be processed alone: %+v", summary)
	}
	if lines := testsupport.ReadLines(t, filepath.Join(dest, runlog.NoMetadataFileName)); len(lines) != 0 {
		t.Fatalf("sidecar should not reach the no-metadata log: %v", lines)
	}
}

func TestRunLogsOrphanSidecar(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	attached := filepath.Join(source, "IMG_0050.AAE")
	orphan := filepath.Join(source, "IMG_0051.AAE")
	testsupport.WriteExifJPEG(t, filepath.Join(source, "IMG_0050.JPG"), julyFourth)
	testsupport.WriteBytes(t, attached, []byte("<plist/>"))
	testsupport.WriteBytes(t, orphan, []byte("<plist/>"))

	summary := runOrganizer(t, source, dest, placement.ModeCopy)

	lines := testsupport.ReadLines(t, filepath.Join(dest, runlog.NoMetadataFileName))
	if len(lines) != 1 || lines[0] != orphan {
		t.Fatalf("expected only the orphan sidecar in the no-metadata log, got %v", lines)
	}
	if summary.Files != 2 || summary.NoMetadata != 1 || summary.ByKind[mediafile.KindUnsupported] != 1 {
		t.Fatalf("orphan should be counted as an unsupported file: %+v", summary)
	}
	if !testsupport.Exists(t, attached) || !testsupport.Exists(t, orphan) {
		t.Fatal("copy mode leaves sidecars in the source")
	}
	if testsupport.Exists(t, filepath.Join(dest, "2023", "07", "IMG_0050.AAE")) {
		t.Fatal("sidecars are not copied unless sidecars_in_copy_mode is set")
	}
}

func TestRunTwiceInCopyModeOnlyAddsDuplicates(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	testsupport.WriteExifJPEG(t, filepath.Join(source, "a.jpg"), julyFourth)
	testsupport.WriteExifJPEG(t, filepath.Join(source, "b", "c.jpg"), "2022:01:09 12:00:00")
	testsupport.WriteFile(t, filepath.Join(source, "readme.txt"), 10)

	first := runOrganizer(t, source, dest, placement.ModeCopy)
	placed := filepath.Join(dest, "2023", "07", "a.jpg")
	before, err := os.Stat(placed)
	if err != nil {
		t.Fatalf("stat placed: %v", err)
	}

	second := runOrganizer(t, source, dest, placement.ModeCopy)

	if second.Placed != 0 || second.Duplicates != first.Placed || second.NoMetadata != first.NoMetadata {
		t.Fatalf("second run should only report duplicates: first=%+v second=%+v", first, second)
	}
	after, err := os.Stat(placed)
	if err != nil {
		t.Fatalf("stat placed after rerun: %v", err)
	}
	if !after.ModTime().Equal(before.ModTime()) || after.Size() != before.Size() {
		t.Fatal("placed file changed on the second run")
	}
	if dups := testsupport.ReadLines(t, filepath.Join(dest, runlog.DuplicateFileName)); len(dups) != 2 {
		t.Fatalf("expected both photos in the duplicate log, got %v", dups)
	}
	if got := testsupport.ReadLines(t, filepath.Join(dest, runlog.NoMetadataFileName)); len(got) != 1 {
		t.Fatalf("no-metadata log should be rewritten per run, got %v", got)
	}
}

func TestRunContinuesAfterFilesystemFailure(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	bad := filepath.Join(source, "bad.jpg")
	good := filepath.Join(source, "good.jpg")
	testsupport.WriteExifJPEG(t, bad, julyFourth)
	testsupport.WriteExifJPEG(t, good, julyFourth)

	restore := placement.SetRenameForTests(func(src, dst string) error {
		if filepath.Base(src) == "bad.jpg" {
			return &os.LinkError{Op: "rename", Old: src, New: dst, Err: syscall.EACCES}
		}
		return os.Rename(src, dst)
	})
	t.Cleanup(restore)

	summary := runOrganizer(t, source, dest, placement.ModeMove)

	if summary.Failed != 1 || summary.Placed != 1 {
		t.Fatalf("expected one failure and one placement, got %+v", summary)
	}
	if !testsupport.Exists(t, bad) {
		t.Fatal("failed move must leave the source intact")
	}
	if testsupport.Exists(t, filepath.Join(dest, "2023", "07", "bad.jpg")) {
		t.Fatal("failed move must not leave a target behind")
	}
	if !testsupport.Exists(t, filepath.Join(dest, "2023", "07", "good.jpg")) {
		t.Fatal("run should continue to the next file")
	}
	for _, name := range runlog.FileNames() {
		if lines := testsupport.ReadLines(t, filepath.Join(dest, name)); len(lines) != 0 {
			t.Fatalf("failed file must not be logged in %s: %v", name, lines)
		}
	}
}

func TestRunSkipsDestinationNestedInSource(t *testing.T) {
	source, _ := testsupport.Dirs(t)
	dest := filepath.Join(source, "organized")
	testsupport.WriteExifJPEG(t, filepath.Join(dest, "2020", "01", "old.jpg"), "2020:01:01 00:00:00")
	testsupport.WriteExifJPEG(t, filepath.Join(source, "new.jpg"), julyFourth)

	summary := runOrganizer(t, source, dest, placement.ModeCopy)

	if summary.Files != 1 || summary.Placed != 1 {
		t.Fatalf("destination subtree must not be walked: %+v", summary)
	}
}

func TestRunRejectsSourceInsideDestination(t *testing.T) {
	dest := t.TempDir()
	source := filepath.Join(dest, "incoming")
	if err := os.MkdirAll(source, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	org := organizer.New(testsupport.NewConfig(t), logging.NewNop())
	_, err := org.Run(context.Background(), source, dest, placement.ModeCopy)
	if !errors.Is(err, failures.ErrInvocation) {
		t.Fatalf("expected invocation error, got %v", err)
	}
}

func TestRunRejectsMissingSource(t *testing.T) {
	org := organizer.New(testsupport.NewConfig(t), logging.NewNop())
	_, err := org.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir(), placement.ModeCopy)
	if !errors.Is(err, failures.ErrInvocation) {
		t.Fatalf("expected invocation error, got %v", err)
	}
}

func TestRunRefusesLockedDestination(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	testsupport.WriteExifJPEG(t, filepath.Join(source, "a.jpg"), julyFourth)

	held := flock.New(filepath.Join(dest, organizer.LockFileName))
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("TryLock: locked=%v err=%v", locked, err)
	}
	t.Cleanup(func() { _ = held.Unlock() })

	org := organizer.New(testsupport.NewConfig(t), logging.NewNop())
	_, err = org.Run(context.Background(), source, dest, placement.ModeCopy)
	if !errors.Is(err, failures.ErrInvocation) {
		t.Fatalf("expected invocation error for held lock, got %v", err)
	}
	if testsupport.Exists(t, filepath.Join(dest, "2023")) {
		t.Fatal("nothing should be placed while another run holds the lock")
	}
}

func TestRunStopsWhenCancelled(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	testsupport.WriteExifJPEG(t, filepath.Join(source, "a.jpg"), julyFourth)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	org := organizer.New(testsupport.NewConfig(t), logging.NewNop())
	summary, err := org.Run(ctx, source, dest, placement.ModeCopy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !summary.Interrupted || summary.Files != 0 {
		t.Fatalf("expected an interrupted empty run, got %+v", summary)
	}
	for _, name := range runlog.FileNames() {
		if !testsupport.Exists(t, filepath.Join(dest, name)) {
			t.Fatalf("%s should still be written on interrupt", name)
		}
	}
}

type fixedResolver struct {
	date   datetaken.ResolvedDate
	seen   []string
	closed bool
}

func (r *fixedResolver) Resolve(_ context.Context, path string) datetaken.ResolvedDate {
	r.seen = append(r.seen, path)
	return r.date
}

func (r *fixedResolver) Close() error {
	r.closed = true
	return nil
}

func TestRunHonoursExcludeDirsAndHiddenFiles(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	keep := filepath.Join(source, "keep.jpg")
	testsupport.WriteFile(t, keep, 8)
	testsupport.WriteFile(t, filepath.Join(source, "thumbs", "t.jpg"), 8)
	testsupport.WriteFile(t, filepath.Join(source, ".cache", "c.jpg"), 8)
	testsupport.WriteFile(t, filepath.Join(source, ".DS_Store"), 8)

	cfg := testsupport.NewConfig(t, testsupport.WithExcludeDirs("thumbs"))
	cfg.Organize.SkipHidden = true
	resolver := &fixedResolver{date: datetaken.At(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))}
	org := organizer.NewWithDependencies(cfg, logging.NewNop(), resolver)

	summary, err := org.Run(context.Background(), source, dest, placement.ModeCopy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(resolver.seen) != 1 || resolver.seen[0] != keep {
		t.Fatalf("only keep.jpg should be resolved, got %v", resolver.seen)
	}
	if summary.Placed != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if err := org.Close(); err != nil || !resolver.closed {
		t.Fatalf("Close should close the resolver: err=%v closed=%v", err, resolver.closed)
	}
}
