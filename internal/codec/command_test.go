package codec

import (
	"bytes"
	"testing"

	"github.com/deb2000-sudo/termcargo/internal/compressor"
	"github.com/deb2000-sudo/termcargo/internal/plan"
)

func TestSerializeParseRoundTripFile(t *testing.T) {
	cmd := Command{
		Action:      ActionFile,
		FileID:      "1",
		Name:        "~/a/hello.txt",
		Size:        12,
		MTime:       1700000000000000000,
		Permissions: 0o644,
		Compression: compressor.None,
		FType:       plan.FileRegular,
		TType:       plan.TransmissionSimple,
	}
	out, err := Parse(cmd.Serialize())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if out.FileID != cmd.FileID || out.Name != cmd.Name || out.Size != cmd.Size ||
		out.MTime != cmd.MTime || out.Permissions != cmd.Permissions {
		t.Fatalf("round-trip mismatch: got %+v want %+v", out, cmd)
	}
}

func TestSerializeParseRoundTripBinaryDataWithNUL(t *testing.T) {
	payload := []byte{0, 1, 2, 0, 255, 0, 10}
	cmd := Command{Action: ActionEndData, FileID: "2", Data: payload}
	out, err := Parse(cmd.Serialize())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if !bytes.Equal(out.Data, payload) {
		t.Fatalf("data mismatch: got %v want %v", out.Data, payload)
	}
	if out.Action != ActionEndData || out.FileID != "2" {
		t.Fatalf("unexpected fields: %+v", out)
	}
}

func TestParseStatusCommand(t *testing.T) {
	out, err := Parse("action=status,file_id=3,status=STARTED,name=/tmp/x,size=10")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if out.Action != ActionStatus || out.FileID != "3" || out.Status != "STARTED" || out.Name != "/tmp/x" || out.Size != 10 {
		t.Fatalf("unexpected fields: %+v", out)
	}
}

func TestNameWithCommaSurvivesRoundTrip(t *testing.T) {
	cmd := Command{Action: ActionFile, FileID: "4", Name: "a,b.txt", FType: plan.FileRegular}
	out, err := Parse(cmd.Serialize())
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if out.Name != "a,b.txt" {
		t.Fatalf("got name %q want %q", out.Name, "a,b.txt")
	}
}
