package util

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestQuantify(t *testing.T) {
	Convey("Quantify", t, func() {
		So(Quantify(1, "file", "files"), ShouldEqual, "1 file")
		So(Quantify(2, "file", "files"), ShouldEqual, "2 files")
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("hello"), ShouldEqual, "Hello")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestFileStem(t *testing.T) {
	Convey("FileStem", t, func() {
		So(FileStem("path/to/file.txt"), ShouldEqual, "file")
		So(FileStem("file"), ShouldEqual, "file")
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
	})
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 0, 10), ShouldEqual, 5)
		So(Clamp(-1, 0, 10), ShouldEqual, 0)
		So(Clamp(11, 0, 10), ShouldEqual, 10)
	})
}

