package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/wheel/internal/adapters/store"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(path, content string) {
	So(os.WriteFile(path, []byte(content), 0o600), ShouldBeNil)
}

func TestFileStore_RoundTrip(t *testing.T) {
	Convey("Given a file store", t, func() {
		ctx := context.Background()
		dir := t.TempDir()

		for _, name := range []string{"weights.json", "weights.yaml", "weights.yml"} {
			path := filepath.Join(dir, name)
			s, err := store.NewFileStore(path)
			So(err, ShouldBeNil)
			So(s.Path(), ShouldEqual, path)

			weights := []int{2, 1, 2, 1024}
			So(s.Save(ctx, weights), ShouldBeNil)

			res := s.Load(ctx, len(weights))
			So(res.Source, ShouldEqual, store.SourceStore)
			So(res.Cause, ShouldBeNil)
			So(res.Reason(), ShouldEqual, store.ReasonNone)
			So(res.Weights, ShouldResemble, weights)

			info, err := os.Stat(path)
			So(err, ShouldBeNil)
			So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o644))
		}

		Convey("When saving again", func() {
			path := filepath.Join(dir, "weights.json")
			So(store.SaveFile(ctx, path, []int{4, 4, 4, 4}), ShouldBeNil)

			Convey("Then the file should be overwritten without leftovers", func() {
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "[4,4,4,4]")

				entries, err := os.ReadDir(dir)
				So(err, ShouldBeNil)
				So(len(entries), ShouldEqual, 3)
			})
		})
	})
}

func TestFileStore_Load(t *testing.T) {
	Convey("Given a weights file path", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "weights.json")

		Convey("When the file does not exist", func() {
			res := store.LoadFile(ctx, path, 10)

			Convey("Then ten ones should be returned with no cause", func() {
				So(res.Source, ShouldEqual, store.SourceDefault)
				So(res.Cause, ShouldBeNil)
				So(res.Reason(), ShouldEqual, store.ReasonMissing)
				So(res.Weights, ShouldResemble, []int{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
			})
		})

		Convey("When the file was written with spaces after commas", func() {
			writeFile(path, "[1, 2, 4]")
			res := store.LoadFile(ctx, path, 3)

			Convey("Then it should load", func() {
				So(res.Source, ShouldEqual, store.SourceStore)
				So(res.Weights, ShouldResemble, []int{1, 2, 4})
			})
		})

		Convey("When the file is not JSON", func() {
			writeFile(path, "not json")
			res := store.LoadFile(ctx, path, 3)

			Convey("Then defaults should be used and the cause marked malformed", func() {
				So(res.Source, ShouldEqual, store.SourceDefault)
				So(errors.Is(res.Cause, store.ErrMalformed), ShouldBeTrue)
				So(res.Reason(), ShouldEqual, store.ReasonMalformed)
				So(res.Weights, ShouldResemble, []int{1, 1, 1})
			})
		})

		Convey("When the file holds the wrong number of weights", func() {
			writeFile(path, "[1, 2]")
			res := store.LoadFile(ctx, path, 3)

			Convey("Then defaults should be used", func() {
				So(res.Source, ShouldEqual, store.SourceDefault)
				So(errors.Is(res.Cause, store.ErrMalformed), ShouldBeTrue)
				So(res.Weights, ShouldResemble, []int{1, 1, 1})
			})
		})

		Convey("When the file holds a zero weight", func() {
			writeFile(path, "[1, 0, 2]")
			res := store.LoadFile(ctx, path, 3)

			Convey("Then defaults should be used", func() {
				So(res.Reason(), ShouldEqual, store.ReasonMalformed)
				So(res.Weights, ShouldResemble, []int{1, 1, 1})
			})
		})

		Convey("When the file holds fractional weights", func() {
			writeFile(path, "[1.5, 2, 2]")
			res := store.LoadFile(ctx, path, 3)
			So(res.Reason(), ShouldEqual, store.ReasonMalformed)
		})

		Convey("When the file is null", func() {
			writeFile(path, "null")
			res := store.LoadFile(ctx, path, 2)
			So(res.Reason(), ShouldEqual, store.ReasonMalformed)
		})

		Convey("When the path is a directory", func() {
			res := store.LoadFile(ctx, dir, 2)

			Convey("Then defaults should be used and the cause marked unreadable", func() {
				So(res.Source, ShouldEqual, store.SourceDefault)
				So(errors.Is(res.Cause, store.ErrLoad), ShouldBeTrue)
				So(res.Reason(), ShouldEqual, store.ReasonUnreadable)
			})
		})

		Convey("When a YAML file is malformed", func() {
			yamlPath := filepath.Join(dir, "weights.yaml")
			writeFile(yamlPath, "- 1\n- [oops")
			res := store.LoadFile(ctx, yamlPath, 2)
			So(res.Reason(), ShouldEqual, store.ReasonMalformed)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			writeFile(path, "[3, 3]")
			res := store.LoadFile(cctx, path, 2)

			Convey("Then defaults should be used", func() {
				So(res.Source, ShouldEqual, store.SourceDefault)
				So(errors.Is(res.Cause, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

func TestFileStore_SaveErrors(t *testing.T) {
	Convey("Given a weights path inside a missing directory", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "missing", "weights.json")

		Convey("When saving", func() {
			err := store.SaveFile(ctx, path, []int{1, 2})

			Convey("Then the failure should be reported as ErrSave", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, store.ErrSave), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			err := store.SaveFile(cctx, filepath.Join(t.TempDir(), "weights.json"), []int{1})
			So(errors.Is(err, store.ErrSave), ShouldBeTrue)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})

		Convey("When the path is empty", func() {
			So(errors.Is(store.SaveFile(ctx, " ", []int{1}), store.ErrSave), ShouldBeTrue)
			So(errors.Is(store.SaveFile(ctx, " ", []int{1}), store.ErrPathRequired), ShouldBeTrue)
			res := store.LoadFile(ctx, "", 2)
			So(res.Weights, ShouldResemble, []int{1, 1})
			_, err := store.NewFileStore("")
			So(errors.Is(err, store.ErrPathRequired), ShouldBeTrue)
		})
	})
}

func TestFileStore_SaveKeepsExistingFile(t *testing.T) {
	Convey("Given an existing weights file", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "weights.json")
		writeFile(path, "[1,1]")

		Convey("When it is private and gets saved", func() {
			So(store.SaveFile(ctx, path, []int{2, 1}), ShouldBeNil)

			Convey("Then its mode should be kept", func() {
				info, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
			})
		})

		Convey("When it is reached through a symlink", func() {
			link := filepath.Join(dir, "current.json")
			So(os.Symlink(path, link), ShouldBeNil)
			So(store.SaveFile(ctx, link, []int{1, 2}), ShouldBeNil)

			Convey("Then the link should stay and its target should be rewritten", func() {
				info, err := os.Lstat(link)
				So(err, ShouldBeNil)
				So(info.Mode()&os.ModeSymlink, ShouldNotEqual, 0)

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "[1,2]")
			})
		})
	})
}

func TestFileStore_SaveReadOnly(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	Convey("Given a read-only weights file", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "weights.json")
		writeFile(path, "[1,1]")
		So(os.Chmod(path, 0o444), ShouldBeNil)

		Convey("When saving", func() {
			err := store.SaveFile(ctx, path, []int{2, 1})

			Convey("Then ErrSave should be returned and the file left alone", func() {
				So(errors.Is(err, store.ErrSave), ShouldBeTrue)

				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, "[1,1]")

				info, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o444))
			})
		})
	})
}
