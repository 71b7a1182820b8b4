package codec

import (
	"testing"

	"github.com/okian/scoutsync/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCodeTables(t *testing.T) {
	Convey("Given the enum code tables", t, func() {
		Convey("Then every value should have a code that maps back to it", func() {
			So(checkTables(), ShouldBeNil)
		})

		Convey("When a value is missing from a table", func() {
			enc := map[model.Zone]byte{model.ZoneNeutral: 'N', model.ZoneDefensiveAlliance: 'D'}
			err := checkTable("zone", model.AllZones(), enc, invert(enc))

			Convey("Then the check should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When two values share a code", func() {
			enc := map[model.MatchRole]byte{model.RoleShooter: 'S', model.RoleFeeder: 'S', model.RoleDefense: 'D'}
			err := checkTable("role", model.AllRoles(), enc, invert(enc))

			Convey("Then the check should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}
