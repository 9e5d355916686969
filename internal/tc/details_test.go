package tc_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"tc-go/internal/descriptor"
	"tc-go/internal/tc"
)

func (fx *scanFixture) refresh(t *testing.T, parent, name string) {
	t.Helper()
	refs := []tc.FolderRef{{
		DiskParent:   fx.disk.Parent,
		DiskName:     fx.disk.Name,
		FolderParent: parent,
		FolderName:   name,
	}}
	if err := fx.worker.UpdateFolderDetails(context.Background(), refs); err != nil {
		t.Fatalf("UpdateFolderDetails() error = %v", err)
	}
}

func TestScanWorker_Descriptor(t *testing.T) {
	t.Run("applies descriptor metadata to the tutorial", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/info.tc", []byte(`
title: Go From Scratch
publisher: Acme Press
author:
  - Jordan Lee
duration: 2h 10m
level: beginner
progress: started
publisher_tags:
  - go
`))

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		if f.Error != "" {
			t.Fatalf("folder Error = %q, want clean", f.Error)
		}

		tut, err := fx.catalog.FindTutorialByFolder(f.ID)
		if err != nil {
			t.Fatalf("FindTutorialByFolder() error = %v", err)
		}
		if tut == nil {
			t.Fatal("tutorial not created")
		}
		if tut.Title != "Go From Scratch" {
			t.Errorf("Title = %q", tut.Title)
		}
		if tut.Duration != 130 {
			t.Errorf("Duration = %d, want 130", tut.Duration)
		}
		if tut.Level != int(descriptor.LevelBeginner) {
			t.Errorf("Level = %d", tut.Level)
		}
		if tut.Progress != descriptor.ProgressStarted {
			t.Errorf("Progress = %q", tut.Progress)
		}
		if tut.AllAuthors != "Jordan Lee" {
			t.Errorf("AllAuthors = %q", tut.AllAuthors)
		}
		if tut.AllTags != "go|publisher" {
			t.Errorf("AllTags = %q", tut.AllTags)
		}
	})

	t.Run("missing descriptor applies defaults", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		tut, _ := fx.catalog.FindTutorialByFolder(f.ID)
		if tut == nil {
			t.Fatal("tutorial not created")
		}
		if !tut.Complete {
			t.Error("default Complete = false, want true")
		}
		if tut.Progress != descriptor.ProgressNotStarted {
			t.Errorf("Progress = %q", tut.Progress)
		}
	})

	t.Run("invalid descriptor records the error and resets metadata", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/info.tc", []byte("title: Broken\nrating: 9\n"))

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		if f == nil {
			t.Fatal("folder with a broken descriptor must stay catalogued")
		}
		if !strings.Contains(f.Error, "info.tc") {
			t.Errorf("folder Error = %q, want descriptor path", f.Error)
		}

		tut, _ := fx.catalog.FindTutorialByFolder(f.ID)
		if tut == nil {
			t.Fatal("tutorial not created")
		}
		if tut.Title != "" {
			t.Errorf("Title = %q, want defaults after a broken descriptor", tut.Title)
		}
	})

	t.Run("fixing the descriptor clears the error", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/info.tc", []byte("rating: 9\n"))
		fx.scan(t, tc.ModeQuick)

		fx.fsmgr.Remove("/media/tutorials/GoCourse/info.tc")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/info.tc", []byte("title: Fixed\nrating: 4\n"))
		fx.refresh(t, "", "GoCourse")

		f := fx.folder(t, "", "GoCourse")
		if f.Error != "" {
			t.Errorf("folder Error = %q, want clean after fix", f.Error)
		}
		tut, _ := fx.catalog.FindTutorialByFolder(f.ID)
		if tut.Title != "Fixed" || tut.Rating != 4 {
			t.Errorf("tutorial = %q/%d, want Fixed/4", tut.Title, tut.Rating)
		}
	})
}

func TestScanWorker_Cover(t *testing.T) {
	t.Run("caches the first candidate cover", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.png", []byte("png-bytes"))

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		cover, err := fx.catalog.FindCoverByFolder(f.ID)
		if err != nil {
			t.Fatalf("FindCoverByFolder() error = %v", err)
		}
		if cover == nil {
			t.Fatal("cover not cached")
		}
		if cover.Format != "png" {
			t.Errorf("Format = %q, want png", cover.Format)
		}
		if !bytes.Equal(cover.Data, []byte("png-bytes")) {
			t.Errorf("Data = %q", cover.Data)
		}
	})

	t.Run("jpg candidate wins over png", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("jpg-bytes"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.png", []byte("png-bytes"))

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		cover, _ := fx.catalog.FindCoverByFolder(f.ID)
		if cover == nil || cover.Format != "jpg" {
			t.Fatalf("cover = %+v, want jpg candidate", cover)
		}
	})

	t.Run("removed cover file removes the cached row", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("jpg-bytes"))
		fx.scan(t, tc.ModeQuick)

		fx.fsmgr.Remove("/media/tutorials/GoCourse/cover.jpg")
		fx.refresh(t, "", "GoCourse")

		f := fx.folder(t, "", "GoCourse")
		cover, _ := fx.catalog.FindCoverByFolder(f.ID)
		if cover != nil {
			t.Error("cover row should be removed with its file")
		}
	})

	t.Run("changed cover file is re-read into the same row", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("v1"))
		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		before, _ := fx.catalog.FindCoverByFolder(f.ID)

		fx.fsmgr.Remove("/media/tutorials/GoCourse/cover.jpg")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("v2-longer"))
		fx.refresh(t, "", "GoCourse")

		after, _ := fx.catalog.FindCoverByFolder(f.ID)
		if after == nil {
			t.Fatal("cover vanished")
		}
		if after.ID != before.ID {
			t.Errorf("cover row changed identity: %s -> %s", before.ID, after.ID)
		}
		if !bytes.Equal(after.Data, []byte("v2-longer")) {
			t.Errorf("Data = %q, want re-read bytes", after.Data)
		}
	})
}

func TestScanWorker_Images(t *testing.T) {
	t.Run("caches numbered images and ignores everything else", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image1.jpg", []byte("one"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/Image2.png", []byte("two"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image0.jpg", []byte("zero"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image100.jpg", []byte("big"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/imageX.jpg", []byte("x"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/notes.txt", []byte("n"))

		fx.scan(t, tc.ModeQuick)

		f := fx.folder(t, "", "GoCourse")
		images, err := fx.catalog.ListImagesByFolder(f.ID)
		if err != nil {
			t.Fatalf("ListImagesByFolder() error = %v", err)
		}
		if len(images) != 2 {
			t.Fatalf("cached %d images, want 2", len(images))
		}
		if images[0].Name != "Image2.png" || images[1].Name != "image1.jpg" {
			t.Errorf("image names = %s, %s", images[0].Name, images[1].Name)
		}
	})

	t.Run("reconciles rows against the files on disk", func(t *testing.T) {
		fx := newScanFixture(t)
		fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image1.jpg", []byte("one"))
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image2.jpg", []byte("two"))
		fx.scan(t, tc.ModeQuick)

		fx.fsmgr.Remove("/media/tutorials/GoCourse/image2.jpg")
		fx.fsmgr.AddFile("/media/tutorials/GoCourse/image3.jpg", []byte("three"))
		fx.refresh(t, "", "GoCourse")

		f := fx.folder(t, "", "GoCourse")
		images, _ := fx.catalog.ListImagesByFolder(f.ID)
		if len(images) != 2 {
			t.Fatalf("cached %d images, want 2", len(images))
		}
		if images[0].Name != "image1.jpg" || images[1].Name != "image3.jpg" {
			t.Errorf("image names = %s, %s", images[0].Name, images[1].Name)
		}
	})
}

func TestScanWorker_FolderSize(t *testing.T) {
	fx := newScanFixture(t)
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
	fx.fsmgr.AddFile("/media/tutorials/GoCourse/video.mp4", []byte("0123456789"))
	fx.fsmgr.AddFile("/media/tutorials/GoCourse/info.tc", []byte("title: x"))

	fx.scan(t, tc.ModeQuick)

	f := fx.folder(t, "", "GoCourse")
	if f.Size != 18 {
		t.Errorf("Size = %d, want 18", f.Size)
	}
}

func TestScanWorker_RefreshUnknownTargets(t *testing.T) {
	fx := newScanFixture(t)
	fx.scan(t, tc.ModeQuick)

	// Unknown disks and folders are skipped with a warning, not an error.
	refs := []tc.FolderRef{
		{DiskParent: "/nowhere", DiskName: "x", FolderParent: "", FolderName: "y"},
		{DiskParent: fx.disk.Parent, DiskName: fx.disk.Name, FolderParent: "", FolderName: "missing"},
	}
	if err := fx.worker.UpdateFolderDetails(context.Background(), refs); err != nil {
		t.Fatalf("UpdateFolderDetails() error = %v", err)
	}
}

func TestScanWorker_DetailsSkippedWithoutPolicy(t *testing.T) {
	fx := newScanFixture(t)
	fx.fsmgr.AddDirectory("/media/tutorials/GoCourse")
	fx.fsmgr.AddFile("/media/tutorials/GoCourse/cover.jpg", []byte("jpg"))

	// Quick mode without the folder_details option walks the tree but
	// extracts nothing.
	table := tc.NewModeTable()
	table.Set(tc.ModeQuick, tc.OptLocalDisks)
	worker := tc.NewScanWorker(fx.catalog, fx.fsmgr, table, tc.NewNopNotifier(),
		tc.NewNopLogger(), tc.RealClock{}, tc.UUIDGenerator{})

	if err := worker.Scan(context.Background(), tc.ModeQuick); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	f := fx.folder(t, "", "GoCourse")
	if f == nil {
		t.Fatal("folder not catalogued")
	}
	cover, _ := fx.catalog.FindCoverByFolder(f.ID)
	if cover != nil {
		t.Error("details must not be extracted when the option is off")
	}
	tut, _ := fx.catalog.FindTutorialByFolder(f.ID)
	if tut != nil {
		t.Error("tutorial must not be created when the option is off")
	}
}
