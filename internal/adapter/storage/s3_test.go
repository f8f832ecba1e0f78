package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	appconfig "github.com/semmidev/pgstash/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func TestS3Storage(t *testing.T) {
	Convey("Given an S3Storage", t, func() {
		Convey("NewS3", func() {
			Convey("When a custom endpoint is configured", func() {
				s, err := NewS3(context.Background(), &appconfig.StorageConfig{
					Endpoint:  "http://minio:9000",
					Region:    "us-east-1",
					Bucket:    "backups",
					AccessKey: "AKIA",
					SecretKey: "shh",
				})

				Convey("It should use path-style addressing against that endpoint", func() {
					So(err, ShouldBeNil)
					So(s.bucket, ShouldEqual, "backups")
					opts := s.client.Options()
					So(*opts.BaseEndpoint, ShouldEqual, "http://minio:9000")
					So(opts.UsePathStyle, ShouldBeTrue)
				})
			})
		})

		Convey("Key mapping", func() {
			Convey("Without a prefix the key is the artifact name", func() {
				s := &S3Storage{}
				So(s.key("orders_2024_03_01_130509.sql"), ShouldEqual, "orders_2024_03_01_130509.sql")
				So(s.name("orders_2024_03_01_130509.sql"), ShouldEqual, "orders_2024_03_01_130509.sql")
			})

			Convey("With a prefix the key is nested and names strip it", func() {
				s := &S3Storage{prefix: "db/"}
				So(s.key("orders.sql"), ShouldEqual, "db/orders.sql")
				So(s.name("db/orders.sql"), ShouldEqual, "orders.sql")
				So(s.name("db/"), ShouldEqual, "")
				So(s.key("../other/x.sql"), ShouldEqual, "db/../other/x.sql")
			})
		})

		Convey("isNotFound", func() {
			So(isNotFound(nil), ShouldBeFalse)
			So(isNotFound(&types.NoSuchKey{}), ShouldBeTrue)
			So(isNotFound(&types.NotFound{}), ShouldBeTrue)
			So(isNotFound(fmt.Errorf("operation error S3: GetObject: %w", &types.NoSuchKey{})), ShouldBeTrue)
			So(isNotFound(&smithy.GenericAPIError{Code: "NotFound"}), ShouldBeTrue)
			So(isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}), ShouldBeFalse)
			So(isNotFound(errors.New("connection reset")), ShouldBeFalse)
		})
	})
}
