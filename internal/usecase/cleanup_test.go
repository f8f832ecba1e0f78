package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCleanup(t *testing.T) {
	Convey("Given remote artifacts of mixed age", t, func() {
		f := newFixture(t)
		ctx := context.Background()
		f.clock.Set(time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local))

		put := func(name string, modTime time.Time) {
			path := filepath.Join(f.remoteDir, name)
			So(os.WriteFile(path, []byte("x"), 0644), ShouldBeNil)
			So(os.Chtimes(path, modTime, modTime), ShouldBeNil)
		}
		old := time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local)
		recent := time.Date(2024, 3, 9, 0, 0, 0, 0, time.Local)

		put("orders_2024_01_01_000000.sql", old)
		put("orders_2024_03_09_000000.sql", recent)
		put("customers_2024_01_01_000000.sql", old)
		put("notes.txt", old)

		Convey("When retention is seven days", func() {
			uc := NewCleanup(f.remote, f.logger, f.clock, "orders", 7)
			deleted, err := uc.Execute(ctx)

			Convey("It should delete only this database's expired artifacts", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 1)
				So(f.remoteHas("orders_2024_01_01_000000.sql"), ShouldBeFalse)
				So(f.remoteHas("orders_2024_03_09_000000.sql"), ShouldBeTrue)
				So(f.remoteHas("customers_2024_01_01_000000.sql"), ShouldBeTrue)
				So(f.remoteHas("notes.txt"), ShouldBeTrue)
			})
		})

		Convey("When the store cannot filter by age", func() {
			f.remote.getOldErr = errors.New("not supported")
			// modification times no longer matter, names do
			put("orders_2024_03_09_000000.sql", old)

			uc := NewCleanup(f.remote, f.logger, f.clock, "orders", 7)
			deleted, err := uc.Execute(ctx)

			Convey("It should fall back to the timestamp in the name", func() {
				So(err, ShouldBeNil)
				So(deleted, ShouldEqual, 1)
				So(f.remoteHas("orders_2024_01_01_000000.sql"), ShouldBeFalse)
				So(f.remoteHas("orders_2024_03_09_000000.sql"), ShouldBeTrue)
			})
		})

		Convey("When retention is disabled", func() {
			uc := NewCleanup(f.remote, f.logger, f.clock, "orders", 0)
			deleted, err := uc.Execute(ctx)

			So(err, ShouldBeNil)
			So(deleted, ShouldEqual, 0)
			So(f.remoteHas("orders_2024_01_01_000000.sql"), ShouldBeTrue)
		})
	})
}

func TestList(t *testing.T) {
	Convey("Given remote artifacts", t, func() {
		f := newFixture(t)
		for _, name := range []string{
			"orders_2024_03_02_000000.sql",
			"readme.txt",
			"orders_2023_12_31_235959.sql",
			"orders_2024_03_01_130509.sql",
		} {
			So(os.WriteFile(filepath.Join(f.remoteDir, name), []byte("x"), 0644), ShouldBeNil)
		}

		Convey("It should list them oldest first", func() {
			names, err := NewList(f.remote).Execute(context.Background())
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{
				"orders_2023_12_31_235959.sql",
				"orders_2024_03_01_130509.sql",
				"orders_2024_03_02_000000.sql",
				"readme.txt",
			})
		})
	})
}
