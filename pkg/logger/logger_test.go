package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given an uninitialized package", t, func() {
		So(Init(), ShouldBeNil)
		So(Get(), ShouldNotBeNil)
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a logger writing text to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)

		Get().Info(context.Background(), "import finished",
			String("path", "signals.csv"), Int("inserted", 3), Bool("dry_run", false),
			Duration("took", 1500*time.Millisecond))

		Convey("Then fields are rendered as key value pairs", func() {
			line := buf.String()
			So(line, ShouldContainSubstring, "msg=\"import finished\"")
			So(line, ShouldContainSubstring, "path=signals.csv")
			So(line, ShouldContainSubstring, "inserted=3")
			So(line, ShouldContainSubstring, "dry_run=false")
			So(line, ShouldContainSubstring, "took=1.5s")
			So(line, ShouldContainSubstring, "source=")
		})
	})

	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithJSON(true), WithOutput(&buf)), ShouldBeNil)

		Named("repository").Warn(context.Background(), "slow query", String("op", "fetch_signals"))

		Convey("Then each entry is one JSON object with the name as a group", func() {
			var entry map[string]interface{}
			So(json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry), ShouldBeNil)
			So(entry["msg"], ShouldEqual, "slow query")
			So(entry["level"], ShouldEqual, "WARN")
			group, ok := entry["repository"].(map[string]interface{})
			So(ok, ShouldBeTrue)
			So(group["op"], ShouldEqual, "fetch_signals")
		})
	})

	Convey("Given the level is raised to error", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		So(SetLevelString("ERROR"), ShouldBeNil)

		Get().Info(context.Background(), "dropped")
		Get().Error(context.Background(), "kept")

		So(buf.String(), ShouldNotContainSubstring, "dropped")
		So(buf.String(), ShouldContainSubstring, "kept")
	})
}

func TestWith(t *testing.T) {
	Convey("Given a logger carrying a command field", t, func() {
		var buf bytes.Buffer
		So(Init(WithOutput(&buf)), ShouldBeNil)
		log := Get().With(String("command", "score"))

		log.Info(context.Background(), "first")
		log.Named("service").Info(context.Background(), "second", Int("scholars", 3))

		Convey("Then every entry carries the field", func() {
			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			So(lines, ShouldHaveLength, 2)
			So(lines[0], ShouldContainSubstring, "command=score")
			So(lines[1], ShouldContainSubstring, "command=score")
			So(lines[1], ShouldContainSubstring, "service.scholars=3")
		})

		Convey("And the source points at the calling file", func() {
			So(buf.String(), ShouldContainSubstring, "logger_test.go:")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level names", t, func() {
		So(Init(WithOutput(&bytes.Buffer{})), ShouldBeNil)
		for _, name := range []string{"debug", "info", "", "warn", "warning", "error"} {
			So(SetLevelString(name), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})

	Convey("Given an unknown level", t, func() {
		So(Init(WithOutput(&bytes.Buffer{})), ShouldBeNil)
		So(SetLevelString("warn"), ShouldBeNil)
		So(SetLevelString("loud"), ShouldNotBeNil)

		Convey("Then the previous level is kept", func() {
			level, err := ParseLevel("WARNING")
			So(err, ShouldBeNil)
			So(levelVar.Level(), ShouldEqual, level)
		})
	})
}

func TestNop(t *testing.T) {
	Convey("Nop discards without panicking", t, func() {
		So(func() { Nop().Named("x").Info(context.Background(), "ignored") }, ShouldNotPanic)
	})
}
