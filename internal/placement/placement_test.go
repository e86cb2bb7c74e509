package placement_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"organize/internal/datetaken"
	"organize/internal/failures"
	"organize/internal/logging"
	"organize/internal/placement"
	"organize/internal/testsupport"
)

var july4 = datetaken.At(time.Date(2023, time.July, 4, 10, 15, 0, 0, time.UTC))

func TestTargetPathPadsMonth(t *testing.T) {
	date := datetaken.At(time.Date(987, time.March, 1, 0, 0, 0, 0, time.UTC))
	got := placement.TargetPath("/dest", date, "/in/deep/nested/IMG_1.jpg")
	if got != filepath.Join("/dest", "0987", "03", "IMG_1.jpg") {
		t.Fatalf("unexpected target: %q", got)
	}
}

func TestPlanAbsentDateSkipsWithoutTouchingDestination(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	planner := placement.NewPlanner(testsupport.NewConfig(t))

	decision, err := planner.Plan(filepath.Join(source, "clip.mkv"), datetaken.Absent(), dest, placement.ModeCopy)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if decision.Action != placement.ActionSkipNoMetadata || decision.Target != "" {
		t.Fatalf("unexpected decision: %+v", decision)
	}
	entries, _ := os.ReadDir(dest)
	if len(entries) != 0 {
		t.Fatalf("expected no directories created, got %v", entries)
	}
}

func TestPlanCreatesDirectoriesIdempotently(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	planner := placement.NewPlanner(testsupport.NewConfig(t))
	src := filepath.Join(source, "IMG_1.jpg")
	testsupport.WriteFile(t, src, 10)

	for i := 0; i < 2; i++ {
		decision, err := planner.Plan(src, july4, dest, placement.ModeCopy)
		if err != nil {
			t.Fatalf("Plan #%d: %v", i, err)
		}
		if decision.Action != placement.ActionPlace {
			t.Fatalf("Plan #%d: expected place, got %v", i, decision.Action)
		}
		if decision.Target != filepath.Join(dest, "2023", "07", "IMG_1.jpg") {
			t.Fatalf("unexpected target %q", decision.Target)
		}
	}
	if info, err := os.Stat(filepath.Join(dest, "2023", "07")); err != nil || !info.IsDir() {
		t.Fatalf("expected month directory, err=%v", err)
	}
}

func TestPlanDetectsDuplicate(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_1.jpg")
	testsupport.WriteFile(t, src, 10)
	existing := filepath.Join(dest, "2023", "07", "IMG_1.jpg")
	testsupport.WriteFile(t, existing, 20)

	decision, err := placement.NewPlanner(testsupport.NewConfig(t)).Plan(src, july4, dest, placement.ModeMove)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if decision.Action != placement.ActionSkipDuplicate || decision.Target != existing {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestPlanReportsDirectoryFailure(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	// A regular file where the year directory should be.
	testsupport.WriteFile(t, filepath.Join(dest, "2023"), 1)

	_, err := placement.NewPlanner(testsupport.NewConfig(t)).Plan(filepath.Join(source, "a.jpg"), july4, dest, placement.ModeCopy)
	if !errors.Is(err, failures.ErrFilesystem) {
		t.Fatalf("expected filesystem failure, got %v", err)
	}
}

func TestPlanCollectsSidecarsOnlyWhenTheyTravel(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_0001.HEIC")
	testsupport.WriteFile(t, src, 10)
	testsupport.WriteFile(t, filepath.Join(source, "IMG_0001.AAE"), 5)

	copyPlanner := placement.NewPlanner(testsupport.NewConfig(t))
	decision, err := copyPlanner.Plan(src, july4, dest, placement.ModeCopy)
	if err != nil || len(decision.Sidecars) != 0 {
		t.Fatalf("copy mode should not carry sidecars by default: %+v err=%v", decision, err)
	}

	decision, err = copyPlanner.Plan(src, july4, dest, placement.ModeMove)
	if err != nil || len(decision.Sidecars) != 1 {
		t.Fatalf("move mode should carry the sidecar: %+v err=%v", decision, err)
	}

	optIn := placement.NewPlanner(testsupport.NewConfig(t, testsupport.WithSidecarsInCopyMode()))
	decision, err = optIn.Plan(src, july4, dest, placement.ModeCopy)
	if err != nil || len(decision.Sidecars) != 1 {
		t.Fatalf("copy mode with opt-in should carry the sidecar: %+v err=%v", decision, err)
	}
}

func planAndExecute(t *testing.T, src, dest string, mode placement.Mode, opts ...testsupport.ConfigOption) (placement.Decision, placement.Result, error) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	decision, err := placement.NewPlanner(cfg).Plan(src, july4, dest, mode)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	result, err := placement.NewExecutor(cfg, logging.NewNop()).Execute(context.Background(), decision)
	return decision, result, err
}

func TestExecuteCopyPreservesSourceAndMetadata(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_1.jpg")
	testsupport.WriteFile(t, src, 4096)
	if err := os.Chmod(src, 0o640); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	stamp := time.Date(2023, time.July, 4, 10, 15, 0, 0, time.UTC)
	if err := os.Chtimes(src, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	decision, result, err := planAndExecute(t, src, dest, placement.ModeCopy)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.Bytes != 4096 {
		t.Fatalf("unexpected bytes: %d", result.Bytes)
	}
	if !testsupport.Exists(t, src) {
		t.Fatal("copy must keep the source")
	}
	info, err := os.Stat(decision.Target)
	if err != nil {
		t.Fatalf("stat target: %v", err)
	}
	if info.Size() != 4096 || info.Mode().Perm() != 0o640 {
		t.Fatalf("unexpected target size/mode: %d %v", info.Size(), info.Mode().Perm())
	}
	if !info.ModTime().Equal(stamp) {
		t.Fatalf("expected mtime %v, got %v", stamp, info.ModTime())
	}
}

func TestExecuteMoveWithSidecar(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "trip", "IMG_0001.JPG")
	sidecar := filepath.Join(source, "trip", "IMG_0001.AAE")
	testsupport.WriteFile(t, src, 100)
	testsupport.WriteFile(t, sidecar, 7)

	decision, result, err := planAndExecute(t, src, dest, placement.ModeMove)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if testsupport.Exists(t, src) || testsupport.Exists(t, sidecar) {
		t.Fatal("move should remove both source files")
	}
	wantSidecar := filepath.Join(dest, "2023", "07", "IMG_0001.AAE")
	if !testsupport.Exists(t, decision.Target) || !testsupport.Exists(t, wantSidecar) {
		t.Fatal("expected photo and sidecar in target directory")
	}
	if len(result.Sidecars) != 1 || !result.Sidecars[0].Placed() || result.Bytes != 107 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteMoveFailureLeavesSourceIntact(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_2.jpg")
	testsupport.WriteFile(t, src, 100)
	sidecar := filepath.Join(source, "IMG_2.AAE")
	testsupport.WriteFile(t, sidecar, 3)

	restore := placement.SetRenameForTests(func(string, string) error {
		return &os.LinkError{Op: "rename", Err: syscall.EACCES}
	})
	defer restore()

	decision, _, err := planAndExecute(t, src, dest, placement.ModeMove)
	if !errors.Is(err, failures.ErrFilesystem) {
		t.Fatalf("expected filesystem failure, got %v", err)
	}
	if !testsupport.Exists(t, src) || !testsupport.Exists(t, sidecar) {
		t.Fatal("failed move must keep the source and its sidecar")
	}
	if testsupport.Exists(t, decision.Target) {
		t.Fatal("failed move must not leave a target")
	}
}

func TestExecuteMoveAcrossDevicesCopiesThenRemoves(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "clip.mov")
	testsupport.WriteFile(t, src, 2048)

	restore := placement.SetRenameForTests(func(oldPath, newPath string) error {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: syscall.EXDEV}
	})
	defer restore()

	decision, result, err := planAndExecute(t, src, dest, placement.ModeMove)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if testsupport.Exists(t, src) {
		t.Fatal("expected source removed after cross-device copy")
	}
	if !testsupport.Exists(t, decision.Target) || result.Bytes != 2048 {
		t.Fatalf("expected full copy at target, result=%+v", result)
	}
}

func TestExecuteCopyNeverOverwrites(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_3.jpg")
	testsupport.WriteFile(t, src, 10)

	cfg := testsupport.NewConfig(t)
	decision, err := placement.NewPlanner(cfg).Plan(src, july4, dest, placement.ModeCopy)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// Another writer claims the target between plan and execute.
	testsupport.WriteBytes(t, decision.Target, []byte("original"))

	_, err = placement.NewExecutor(cfg, logging.NewNop()).Execute(context.Background(), decision)
	if !errors.Is(err, failures.ErrDuplicateTarget) {
		t.Fatalf("expected duplicate target error, got %v", err)
	}
	data, _ := os.ReadFile(decision.Target)
	if string(data) != "original" {
		t.Fatalf("existing target was modified: %q", data)
	}
}

func TestExecuteSidecarCollisionDoesNotRollBack(t *testing.T) {
	source, dest := testsupport.Dirs(t)
	src := filepath.Join(source, "IMG_4.HEIC")
	sidecar := filepath.Join(source, "IMG_4.AAE")
	testsupport.WriteFile(t, src, 10)
	testsupport.WriteFile(t, sidecar, 2)
	testsupport.WriteBytes(t, filepath.Join(dest, "2023", "07", "IMG_4.AAE"), []byte("other"))

	decision, result, err := planAndExecute(t, src, dest, placement.ModeMove)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !testsupport.Exists(t, decision.Target) || testsupport.Exists(t, src) {
		t.Fatal("primary move should stand")
	}
	if !testsupport.Exists(t, sidecar) {
		t.Fatal("colliding sidecar should stay at its source")
	}
	if len(result.Sidecars) != 1 || !result.Sidecars[0].Skipped {
		t.Fatalf("expected skipped sidecar, got %+v", result.Sidecars)
	}
}

func TestExecuteSkipDecisionsAreNoops(t *testing.T) {
	executor := placement.NewExecutor(testsupport.NewConfig(t), logging.NewNop())
	for _, action := range []placement.Action{placement.ActionSkipDuplicate, placement.ActionSkipNoMetadata} {
		result, err := executor.Execute(context.Background(), placement.Decision{Action: action, Source: "/nonexistent"})
		if err != nil || result.Bytes != 0 {
			t.Fatalf("%v: expected no-op, got %+v err=%v", action, result, err)
		}
	}
}
