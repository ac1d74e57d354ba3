package credential

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sgs-visits/backend/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	rec := &models.VisitRecord{
		ID:           uuid.New(),
		ChildName:    "Asha Rao",
		ClassName:    "5B",
		FatherName:   "Vikram Rao",
		PhoneNumber:  "9876543210",
		VisitorCount: 2,
		VisitorType:  models.VisitorTypeParent,
		CreatedAt:    time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	text, err := FromRecord(rec).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	identity, err := Decode(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if identity.VisitID != rec.ID.String() {
		t.Fatalf("expected visit id %s, got %s", rec.ID, identity.VisitID)
	}
	if identity.PhoneNumber != "9876543210" {
		t.Fatalf("expected phone, got %q", identity.PhoneNumber)
	}
}

func TestFromRecordPlaceholders(t *testing.T) {
	rec := &models.VisitRecord{
		ID:          uuid.New(),
		FatherName:  "Guest Visitor",
		PhoneNumber: "1112223333",
		VisitorType: models.VisitorTypeVisitor,
	}
	p := FromRecord(rec)
	if p.ChildName != models.PlaceholderValue || p.ClassName != models.PlaceholderValue {
		t.Fatalf("expected placeholder child/class, got %q/%q", p.ChildName, p.ClassName)
	}
	if p.VisitorCount != "0" {
		t.Fatalf("expected stringified count, got %q", p.VisitorCount)
	}
}

func TestDecodeLegacyKeys(t *testing.T) {
	identity, err := Decode(`{"id":"abc-123","phone_number":"5550001111"}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if identity.VisitID != "abc-123" {
		t.Fatalf("expected legacy id, got %q", identity.VisitID)
	}
	if identity.PhoneNumber != "5550001111" {
		t.Fatalf("expected legacy phone, got %q", identity.PhoneNumber)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, text := range []string{
		"not json",
		`{"childName":"no identity"}`,
		`{}`,
		"",
	} {
		if _, err := Decode(text); err != ErrMalformed {
			t.Fatalf("expected ErrMalformed for %q, got %v", text, err)
		}
	}
}

func TestEncodedKeyNames(t *testing.T) {
	rec := &models.VisitRecord{ID: uuid.New(), PhoneNumber: "123", VisitorType: "Other"}
	text, err := FromRecord(rec).Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var keys map[string]any
	if err := json.Unmarshal([]byte(text), &keys); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, k := range []string{"visitId", "childName", "className", "fatherName", "phoneNumber", "visitorCount", "visitorType", "timestamp"} {
		if _, ok := keys[k]; !ok {
			t.Fatalf("missing key %q in %s", k, text)
		}
	}
}

func TestRenderPNG(t *testing.T) {
	rec := &models.VisitRecord{ID: uuid.New(), PhoneNumber: "123", VisitorType: "Other"}
	png, err := Render(FromRecord(rec), DefaultImageSize)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")) {
		t.Fatal("expected PNG magic bytes")
	}
}
