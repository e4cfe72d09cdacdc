package points_test

import (
	"errors"
	"testing"

	"github.com/okian/meetpoints/internal/domain/points"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseTable(t *testing.T) {
	Convey("Given table text", t, func() {
		Convey("A well formed list parses and prints back", func() {
			table, err := points.ParseTable(" 1:12, 2:8 ,3:4")
			So(err, ShouldBeNil)
			So(table, ShouldResemble, points.Table{1: 12, 2: 8, 3: 4})
			So(table.String(), ShouldEqual, "1:12,2:8,3:4")
		})

		Convey("Blank text is an empty table", func() {
			table, err := points.ParseTable("  ")
			So(err, ShouldBeNil)
			So(table.Empty(), ShouldBeTrue)
		})

		Convey("Malformed entries are rejected", func() {
			for _, raw := range []string{"1=10", "a:10", "1:x", "1:10,1:9", "0:5", "1:-2"} {
				_, err := points.ParseTable(raw)
				So(errors.Is(err, points.ErrInvalidTable), ShouldBeTrue)
			}
		})
	})
}
