package database_test

import (
	"testing"
	"time"

	"tc-go/internal/database"
	"tc-go/internal/descriptor"
	"tc-go/internal/model"
)

func newTestCatalog(t *testing.T) *database.SQLiteCatalog {
	t.Helper()
	catalog, err := database.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteCatalog() error = %v", err)
	}
	t.Cleanup(func() { catalog.Close() })
	return catalog
}

func addDisk(t *testing.T, c *database.SQLiteCatalog, id, parent, name string) *model.Disk {
	t.Helper()
	d := &model.Disk{
		ID:       id,
		Parent:   parent,
		Name:     name,
		Location: model.LocationLocal,
		Role:     model.RoleDefault,
		Checked:  true,
	}
	if err := c.UpsertDisk(d); err != nil {
		t.Fatalf("UpsertDisk() error = %v", err)
	}
	return d
}

func addFolder(t *testing.T, c *database.SQLiteCatalog, id, diskID, parent, name, systemID string) *model.Folder {
	t.Helper()
	f := &model.Folder{
		ID:       id,
		DiskID:   diskID,
		Parent:   parent,
		Name:     name,
		SystemID: systemID,
		Status:   model.StatusNew,
		Created:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Modified: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Checked:  true,
	}
	if err := c.InsertFolder(f); err != nil {
		t.Fatalf("InsertFolder() error = %v", err)
	}
	return f
}

func TestSQLiteCatalog_Disks(t *testing.T) {
	t.Run("upsert inserts then updates by path", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")

		// Same (parent, name), new attributes: row is updated in place.
		update := &model.Disk{
			ID:       "ignored",
			Parent:   "/media",
			Name:     "tutorials",
			Location: model.LocationRemote,
			Role:     model.RoleBackup,
			Depth:    2,
			Checked:  false,
		}
		if err := c.UpsertDisk(update); err != nil {
			t.Fatalf("UpsertDisk() error = %v", err)
		}

		disks, err := c.ListDisks()
		if err != nil {
			t.Fatalf("ListDisks() error = %v", err)
		}
		if len(disks) != 1 {
			t.Fatalf("ListDisks() returned %d disks, want 1", len(disks))
		}
		d := disks[0]
		if d.ID != "d1" {
			t.Errorf("ID = %s, want original row", d.ID)
		}
		if d.Location != model.LocationRemote || d.Role != model.RoleBackup || d.Depth != 2 || d.Checked {
			t.Errorf("disk not updated: %+v", d)
		}
	})

	t.Run("find by path", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")

		d, err := c.FindDiskByPath("/media", "tutorials")
		if err != nil {
			t.Fatalf("FindDiskByPath() error = %v", err)
		}
		if d == nil || d.ID != "d1" {
			t.Errorf("FindDiskByPath() = %+v", d)
		}

		missing, err := c.FindDiskByPath("/media", "other")
		if err != nil {
			t.Fatalf("FindDiskByPath() error = %v", err)
		}
		if missing != nil {
			t.Errorf("FindDiskByPath(missing) = %+v, want nil", missing)
		}
	})

	t.Run("liveness flags", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "a")
		addDisk(t, c, "d2", "/media", "b")

		if err := c.SetDiskOnline("d1", true); err != nil {
			t.Fatalf("SetDiskOnline() error = %v", err)
		}
		if err := c.MarkDisksOffline(); err != nil {
			t.Fatalf("MarkDisksOffline() error = %v", err)
		}

		disks, _ := c.ListDisks()
		for _, d := range disks {
			if d.Online {
				t.Errorf("disk %s still online after MarkDisksOffline", d.ID)
			}
		}
	})

	t.Run("deleting a disk cascades to its folders and details", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		if err := c.SaveCover(&model.Cover{ID: "c1", FolderID: f.ID, Format: "jpg", Data: []byte("x")}); err != nil {
			t.Fatalf("SaveCover() error = %v", err)
		}
		if err := c.SaveImage(&model.Image{ID: "i1", FolderID: f.ID, Name: "image1.jpg", Data: []byte("x")}); err != nil {
			t.Fatalf("SaveImage() error = %v", err)
		}
		if err := c.ApplyTutorial(f.ID, descriptor.Defaults()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		if err := c.DeleteDisk("d1"); err != nil {
			t.Fatalf("DeleteDisk() error = %v", err)
		}

		if d, _ := c.FindDiskByPath("/media", "tutorials"); d != nil {
			t.Error("disk still present")
		}
		if got, _ := c.FindFolderByPath("d1", "", "GoCourse"); got != nil {
			t.Error("folder survived disk deletion")
		}
		if cover, _ := c.FindCoverByFolder(f.ID); cover != nil {
			t.Error("cover survived disk deletion")
		}
		if images, _ := c.ListImagesByFolder(f.ID); len(images) != 0 {
			t.Error("images survived disk deletion")
		}
		if tut, _ := c.FindTutorialByFolder(f.ID); tut != nil {
			t.Error("tutorial survived disk deletion")
		}
	})
}

func TestSQLiteCatalog_Folders(t *testing.T) {
	t.Run("lookups by system id and path", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		bySys, err := c.FindFolderBySystemID("d1", "sys-1")
		if err != nil {
			t.Fatalf("FindFolderBySystemID() error = %v", err)
		}
		if bySys == nil || bySys.ID != "f1" {
			t.Errorf("FindFolderBySystemID() = %+v", bySys)
		}

		// Empty system id never matches anything.
		none, err := c.FindFolderBySystemID("d1", "")
		if err != nil {
			t.Fatalf("FindFolderBySystemID() error = %v", err)
		}
		if none != nil {
			t.Errorf("FindFolderBySystemID(empty) = %+v, want nil", none)
		}

		byPath, err := c.FindFolderByPath("d1", "", "GoCourse")
		if err != nil {
			t.Fatalf("FindFolderByPath() error = %v", err)
		}
		if byPath == nil || byPath.ID != "f1" {
			t.Errorf("FindFolderByPath() = %+v", byPath)
		}
	})

	t.Run("scan update rewrites path, identity and status", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		f.Parent = "acme"
		f.Name = "GoLang"
		f.SystemID = "sys-2"
		f.Status = model.StatusRenamed
		if err := c.UpdateFolderScan(f); err != nil {
			t.Fatalf("UpdateFolderScan() error = %v", err)
		}

		got, _ := c.FindFolderByPath("d1", "acme", "GoLang")
		if got == nil || got.ID != "f1" || got.SystemID != "sys-2" || got.Status != model.StatusRenamed {
			t.Errorf("updated folder = %+v", got)
		}
	})

	t.Run("details update rewrites size and error", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		f.Size = 4096
		f.Error = "boom"
		if err := c.UpdateFolderDetails(f); err != nil {
			t.Fatalf("UpdateFolderDetails() error = %v", err)
		}

		got, _ := c.FindFolderByPath("d1", "", "GoCourse")
		if got.Size != 4096 || got.Error != "boom" {
			t.Errorf("folder = size %d error %q", got.Size, got.Error)
		}
	})

	t.Run("unknown folders are deleted with their details", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		seen := addFolder(t, c, "f1", "d1", "", "Seen", "sys-1")
		gone := addFolder(t, c, "f2", "d1", "", "Gone", "sys-2")

		if err := c.SaveCover(&model.Cover{ID: "c2", FolderID: gone.ID, Format: "jpg", Data: []byte("x")}); err != nil {
			t.Fatalf("SaveCover() error = %v", err)
		}
		if err := c.ApplyTutorial(gone.ID, descriptor.Defaults()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		if err := c.MarkFoldersUnknown("d1"); err != nil {
			t.Fatalf("MarkFoldersUnknown() error = %v", err)
		}
		seen.Status = model.StatusOK
		if err := c.UpdateFolderScan(seen); err != nil {
			t.Fatalf("UpdateFolderScan() error = %v", err)
		}

		deleted, err := c.DeleteUnknownFolders("d1")
		if err != nil {
			t.Fatalf("DeleteUnknownFolders() error = %v", err)
		}
		if deleted != 1 {
			t.Errorf("deleted = %d, want 1", deleted)
		}
		if got, _ := c.FindFolderByPath("d1", "", "Gone"); got != nil {
			t.Error("unknown folder survived")
		}
		if got, _ := c.FindFolderByPath("d1", "", "Seen"); got == nil {
			t.Error("seen folder deleted")
		}
		if cover, _ := c.FindCoverByFolder(gone.ID); cover != nil {
			t.Error("cover survived folder deletion")
		}
		if tut, _ := c.FindTutorialByFolder(gone.ID); tut != nil {
			t.Error("tutorial survived folder deletion")
		}
	})
}

func TestSQLiteCatalog_Tutorials(t *testing.T) {
	descriptorData := func() *descriptor.Data {
		d := descriptor.Defaults()
		d.Title = "Go From Scratch"
		d.Publisher = "Acme Press"
		d.Authors = []string{"Jordan Lee", "Alex Kim"}
		d.PublisherTags = []string{"go"}
		d.PersonalTags = []string{"go"}
		d.LearningPaths = []descriptor.PathRef{{Publisher: "Acme Press", Name: "Backend", Position: 0}}
		return d
	}

	t.Run("apply creates the tutorial graph", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		if err := c.ApplyTutorial(f.ID, descriptorData()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		tut, err := c.FindTutorialByFolder(f.ID)
		if err != nil {
			t.Fatalf("FindTutorialByFolder() error = %v", err)
		}
		if tut == nil {
			t.Fatal("tutorial not created")
		}
		if tut.Title != "Go From Scratch" {
			t.Errorf("Title = %q", tut.Title)
		}
		if tut.AllAuthors != "Alex Kim, Jordan Lee" {
			t.Errorf("AllAuthors = %q", tut.AllAuthors)
		}
		if tut.AllTags != "go|personal, go|publisher" {
			t.Errorf("AllTags = %q", tut.AllTags)
		}
		if tut.AllPaths != "Acme Press/Backend" {
			t.Errorf("AllPaths = %q", tut.AllPaths)
		}
	})

	t.Run("reapply replaces links and keeps the row", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		if err := c.ApplyTutorial(f.ID, descriptorData()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}
		before, _ := c.FindTutorialByFolder(f.ID)

		d := descriptor.Defaults()
		d.Title = "Renamed Course"
		d.Authors = []string{"Jordan Lee"}
		if err := c.ApplyTutorial(f.ID, d); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		after, _ := c.FindTutorialByFolder(f.ID)
		if after.ID != before.ID {
			t.Errorf("tutorial row changed identity: %s -> %s", before.ID, after.ID)
		}
		if after.Title != "Renamed Course" {
			t.Errorf("Title = %q", after.Title)
		}
		if after.AllAuthors != "Jordan Lee" {
			t.Errorf("AllAuthors = %q", after.AllAuthors)
		}
		if after.AllTags != "" {
			t.Errorf("AllTags = %q, want cleared", after.AllTags)
		}
	})

	t.Run("shared lookup rows are reused across tutorials", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f1 := addFolder(t, c, "f1", "d1", "", "CourseA", "sys-1")
		f2 := addFolder(t, c, "f2", "d1", "", "CourseB", "sys-2")

		if err := c.ApplyTutorial(f1.ID, descriptorData()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}
		if err := c.ApplyTutorial(f2.ID, descriptorData()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		t1, _ := c.FindTutorialByFolder(f1.ID)
		t2, _ := c.FindTutorialByFolder(f2.ID)
		if t1.PublisherID != t2.PublisherID {
			t.Errorf("publisher rows differ: %s vs %s", t1.PublisherID, t2.PublisherID)
		}
	})

	t.Run("prune removes only unreferenced authors", func(t *testing.T) {
		c := newTestCatalog(t)
		addDisk(t, c, "d1", "/media", "tutorials")
		f := addFolder(t, c, "f1", "d1", "", "GoCourse", "sys-1")

		if err := c.ApplyTutorial(f.ID, descriptorData()); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		// Drop one author from the descriptor; its row is now orphaned.
		d := descriptorData()
		d.Authors = []string{"Jordan Lee"}
		if err := c.ApplyTutorial(f.ID, d); err != nil {
			t.Fatalf("ApplyTutorial() error = %v", err)
		}

		pruned, err := c.PruneAuthors()
		if err != nil {
			t.Fatalf("PruneAuthors() error = %v", err)
		}
		if pruned != 1 {
			t.Errorf("pruned = %d, want 1", pruned)
		}

		// A second prune finds nothing.
		pruned, err = c.PruneAuthors()
		if err != nil {
			t.Fatalf("PruneAuthors() error = %v", err)
		}
		if pruned != 0 {
			t.Errorf("second prune = %d, want 0", pruned)
		}
	})
}
