package sheets

import (
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"
)

const eventsHeader = "Data,Hora,Titulo,Professor,Local,Descricao,Tipo,Corpo,Resumo,Capa,Capa2,Subtitulo,SubInicial\n"

func TestParseEventsBasicRow(t *testing.T) {
	text := eventsHeader +
		"15/01/2025,19:00,Kickoff Night,Ana Souza,Room 4,Opening session,Lecture,Core,Daily note,Cover,Cover2,Sub,SubInit\n"

	got := ParseEvents("school", text, time.UTC)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}

	rec := got[0]
	wantStart := time.Date(2025, time.January, 15, 19, 0, 0, 0, time.UTC)
	if rec.Timestamp != wantStart.UnixMilli() {
		t.Errorf("Timestamp = %d, want %d", rec.Timestamp, wantStart.UnixMilli())
	}
	if want := "school-0-" + strconv.FormatInt(wantStart.UnixMilli(), 10); rec.ID != want {
		t.Errorf("ID = %q, want %q", rec.ID, want)
	}
	if rec.Title != "Kickoff Night" || rec.Speaker != "Ana Souza" || rec.Type != "Lecture" {
		t.Errorf("unexpected record fields: %+v", rec)
	}
	if rec.InitialSubtitle != "SubInit" {
		t.Errorf("InitialSubtitle = %q, want %q", rec.InitialSubtitle, "SubInit")
	}
}

func TestParseEventsDropsIncompleteRows(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"missing date", ",19:00,Title"},
		{"missing time", "15/01/2025,,Title"},
		{"missing title", "15/01/2025,19:00,"},
		{"invalid calendar date", "2024-99-99,19:00,Title"},
		{"non-numeric time", "15/01/2025,abc,Title"},
		{"date with too few parts", "15/2025,19:00,Title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEvents("school", eventsHeader+tt.row+"\n", time.UTC)
			if len(got) != 0 {
				t.Errorf("row %q produced %d records, want 0", tt.row, len(got))
			}
		})
	}
}

func TestParseEventsRowIndexCountsDroppedRows(t *testing.T) {
	// The dropped middle row still advances the row position, so the third
	// row keeps a stable identity whether or not the second one parses.
	text := eventsHeader +
		"15/01/2025,19:00,First\n" +
		"bad-date,19:00,Broken\n" +
		"17/01/2025,19:00,Third\n"

	got := ParseEvents("school", text, time.UTC)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if !strings.HasPrefix(got[1].ID, "school-2-") {
		t.Errorf("third row ID = %q, want prefix %q", got[1].ID, "school-2-")
	}
}

func TestParseEventsIsDeterministic(t *testing.T) {
	text := eventsHeader +
		"15/01/2025,19:00,First\n" +
		"16/01/2025,20:30,\"Second, with comma\"\n"

	first := ParseEvents("school", text, time.UTC)
	second := ParseEvents("school", text, time.UTC)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated parse differs:\n%+v\n%+v", first, second)
	}
}

func TestParseEventsFallbacks(t *testing.T) {
	text := eventsHeader + "15/01/2025,19:00,Title\n"

	got := ParseEvents("school", text, time.UTC)
	if len(got) != 1 {
		t.Fatalf("got %d records, want 1", len(got))
	}
	if got[0].Location != fallbackLocation {
		t.Errorf("Location = %q, want fallback %q", got[0].Location, fallbackLocation)
	}
	if got[0].Type != fallbackType {
		t.Errorf("Type = %q, want fallback %q", got[0].Type, fallbackType)
	}
}

func TestParseEventsDashDateSeparator(t *testing.T) {
	text := eventsHeader + "15-01-2025,19:00,Title\n"
	got := ParseEvents("school", text, time.UTC)
	if len(got) != 1 {
		t.Fatalf("dash-separated date not accepted")
	}
}

func TestParseEventsShortPayload(t *testing.T) {
	for _, text := range []string{"", eventsHeader} {
		if got := ParseEvents("school", text, time.UTC); len(got) != 0 {
			t.Errorf("ParseEvents(%q) = %d records, want 0", text, len(got))
		}
	}
}

func TestParsePartners(t *testing.T) {
	text := "Nome,Categoria,Descricao,WhatsApp,Instagram,Imagem\n" +
		"Alpha Foods,Food,\"Catering, events\",5511999990000,@alphafoods,https://img/a.png\n" +
		",,No name or category\n"

	got := ParsePartners(text)
	if len(got) != 2 {
		t.Fatalf("got %d entries, want 2", len(got))
	}

	if got[0].ID != "partner-0" || got[1].ID != "partner-1" {
		t.Errorf("sequential IDs wrong: %q, %q", got[0].ID, got[1].ID)
	}
	if got[0].Description != "Catering, events" {
		t.Errorf("quoted description = %q", got[0].Description)
	}
	if got[1].Name != fallbackPartnerName || got[1].Category != fallbackPartnerCategory {
		t.Errorf("placeholders not applied: %+v", got[1])
	}
}
