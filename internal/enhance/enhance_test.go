package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"

	"github.com/salmonumbrella/braindump/internal/record"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(*testing.T, *record.Enhancement)
	}{
		{
			name: "plain object",
			raw:  `{"title":"Book flights","type":"task","tags":["travel"],"urgency":8,"importance":6}`,
			check: func(t *testing.T, e *record.Enhancement) {
				if *e.Title != "Book flights" || *e.Type != record.TypeTask || *e.Urgency != 8 || *e.Importance != 6 {
					t.Fatalf("unexpected enhancement: %+v", e)
				}
				if len(e.Tags) != 1 || e.Tags[0] != "travel" {
					t.Fatalf("unexpected tags: %v", e.Tags)
				}
			},
		},
		{
			name: "fenced with prose",
			raw:  "```json\n{\"type\": \"Goal\", \"urgency\": \"7\"}\n```",
			check: func(t *testing.T, e *record.Enhancement) {
				if e.Type == nil || *e.Type != record.TypeProject {
					t.Fatalf("expected goal to map to project, got %v", e.Type)
				}
				if e.Urgency == nil || *e.Urgency != 7 {
					t.Fatalf("expected urgency 7 from string, got %v", e.Urgency)
				}
				if e.Title != nil || e.Importance != nil {
					t.Fatalf("missing keys must stay nil: %+v", e)
				}
			},
		},
		{
			name: "comma tags and out of range scores",
			raw:  `Sure! {"tags":"home, errands","urgency":42,"importance":-3.4,"description":"  "}`,
			check: func(t *testing.T, e *record.Enhancement) {
				if len(e.Tags) != 2 || e.Tags[1] != " errands" {
					t.Fatalf("unexpected tags: %q", e.Tags)
				}
				if *e.Urgency != record.MaxScore || *e.Importance != record.MinScore {
					t.Fatalf("expected clamped scores, got %d/%d", *e.Urgency, *e.Importance)
				}
				if e.Description != nil {
					t.Fatalf("blank description should be dropped")
				}
			},
		},
		{
			name: "unusable values",
			raw:  `{"type":"idea","urgency":"soon","tags":{"a":1}}`,
			check: func(t *testing.T, e *record.Enhancement) {
				if e.Type != nil || e.Urgency != nil || e.Tags != nil {
					t.Fatalf("expected unusable values dropped: %+v", e)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enh, err := Decode(tt.raw)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			tt.check(t, enh)
		})
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, raw := range []string{"", "no json here", "[1,2]", "{broken"} {
		if _, err := Decode(raw); err == nil {
			t.Errorf("Decode(%q) expected error", raw)
		}
	}
}

type fakeModels struct {
	reply     string
	err       error
	gotModel  string
	gotConfig *genai.GenerateContentConfig
	gotText   string
}

func (f *fakeModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.gotModel = model
	f.gotConfig = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.gotText = contents[0].Parts[0].Text
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(f.reply, genai.RoleModel)}},
	}, nil
}

func TestGeminiEnhance(t *testing.T) {
	fake := &fakeModels{reply: `{"title":"Pack","importance":9}`}
	g := &Gemini{models: fake, model: "test-model"}

	enh, err := g.Enhance(context.Background(), "pack clothes")
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if *enh.Title != "Pack" || *enh.Importance != 9 {
		t.Fatalf("unexpected enhancement: %+v", enh)
	}
	if fake.gotModel != "test-model" || fake.gotText != "pack clothes" {
		t.Fatalf("unexpected request: model=%q text=%q", fake.gotModel, fake.gotText)
	}
	if fake.gotConfig.ResponseMIMEType != "application/json" {
		t.Fatalf("expected JSON response type, got %q", fake.gotConfig.ResponseMIMEType)
	}

	fake.err = errors.New("quota")
	if _, err := g.Enhance(context.Background(), "x"); err == nil {
		t.Fatal("expected error from provider")
	}
}

func TestNewGeminiRequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", ""); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestRemoteEnhance(t *testing.T) {
	var gotText, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/enhance" {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		gotText = body["text"]
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"type":"project","tags":["work"]}`))
	}))
	defer server.Close()

	enh, err := NewRemote(server.URL+"/", "tok").Enhance(context.Background(), "launch site")
	if err != nil {
		t.Fatalf("Enhance() error = %v", err)
	}
	if *enh.Type != record.TypeProject || enh.Tags[0] != "work" {
		t.Fatalf("unexpected enhancement: %+v", enh)
	}
	if gotText != "launch site" || gotAuth != "Bearer tok" {
		t.Fatalf("unexpected request: text=%q auth=%q", gotText, gotAuth)
	}
}

func TestRemoteEnhanceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no enhancer", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	if _, err := NewRemote(server.URL, "").Enhance(context.Background(), "x"); err == nil {
		t.Fatal("expected error for 503")
	}
}

func TestFuncNil(t *testing.T) {
	if Func(nil) != nil {
		t.Fatal("expected nil func for nil enhancer")
	}
	if Func(NewRemote("http://example.invalid", "")) == nil {
		t.Fatal("expected func for enhancer")
	}
}
