package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"doc-insight-go/internal/model"
	"doc-insight-go/internal/pipeline"
	"doc-insight-go/pkg/storage"
)

var (
	alice = model.Principal{ID: 1, Email: "alice@example.com"}
	bob   = model.Principal{ID: 2, Email: "bob@example.com"}
)

func seededDocService(t *testing.T) (DocumentService, *memDocRepo, *fakeAnswerer, *fakeFetcher) {
	t.Helper()
	repo := newMemDocRepo()
	_ = repo.Create(context.Background(), &model.Document{
		ID:          "doc-1",
		UserID:      alice.ID,
		FileName:    "invoice.png",
		MimeType:    "image/png",
		TextContent: "INVOICE #123, TOTAL $45.00",
		StorageKey:  "1/abc.png",
	})
	answerer := &fakeAnswerer{answer: "$45.00"}
	fetcher := &fakeFetcher{objects: map[string]*storage.Object{
		"1/abc.png": {Body: io.NopCloser(strings.NewReader("png-bytes")), ContentType: "application/octet-stream", Size: 9},
	}}
	return NewDocumentService(repo, &fakeIngester{}, answerer, fetcher, nil), repo, answerer, fetcher
}

func TestAskAppendsOneConversation(t *testing.T) {
	svc, repo, answerer, _ := seededDocService(t)
	ctx := context.Background()

	qa, err := svc.Ask(ctx, alice, "doc-1", "  What is the total?  ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if qa.Question != "What is the total?" || qa.Answer != "$45.00" {
		t.Fatalf("qa = %+v", qa)
	}
	if answerer.got[0] != "INVOICE #123, TOTAL $45.00|What is the total?" {
		t.Fatalf("answerer got %q", answerer.got[0])
	}
	if n, _ := repo.CountConversations(ctx, "doc-1"); n != 1 {
		t.Fatalf("conversations = %d", n)
	}
}

func TestAskForeignDocumentIsNotFound(t *testing.T) {
	svc, repo, answerer, _ := seededDocService(t)

	_, err := svc.Ask(context.Background(), bob, "doc-1", "total?")
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(answerer.got) != 0 || len(repo.convs["doc-1"]) != 0 {
		t.Fatal("no completion or conversation for a foreign document")
	}
}

func TestAskCompletionFailureWritesNothing(t *testing.T) {
	svc, repo, answerer, _ := seededDocService(t)
	answerer.err = model.ErrCompletion

	if _, err := svc.Ask(context.Background(), alice, "doc-1", "total?"); !errors.Is(err, model.ErrCompletion) {
		t.Fatalf("expected ErrCompletion, got %v", err)
	}
	if len(repo.convs["doc-1"]) != 0 {
		t.Fatal("conversation must not be written")
	}
}

func TestAskEmptyQuestion(t *testing.T) {
	svc, _, answerer, _ := seededDocService(t)
	if _, err := svc.Ask(context.Background(), alice, "doc-1", "   "); !errors.Is(err, model.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(answerer.got) != 0 {
		t.Fatal("completion must not be called")
	}
}

func TestGetIsOwnerScoped(t *testing.T) {
	svc, _, _, _ := seededDocService(t)
	if _, err := svc.Get(context.Background(), bob, "doc-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	doc, err := svc.Get(context.Background(), alice, "doc-1")
	if err != nil || doc.FileName != "invoice.png" {
		t.Fatalf("Get = %+v, %v", doc, err)
	}
}

func TestListOnlyOwnDocuments(t *testing.T) {
	svc, _, _, _ := seededDocService(t)
	list, err := svc.List(context.Background(), bob)
	if err != nil || len(list) != 0 {
		t.Fatalf("List(bob) = %+v, %v", list, err)
	}
	list, err = svc.List(context.Background(), alice)
	if err != nil || len(list) != 1 {
		t.Fatalf("List(alice) = %+v, %v", list, err)
	}
}

func TestDownloadUsesRecordedNameAndType(t *testing.T) {
	svc, _, _, _ := seededDocService(t)
	f, err := svc.Download(context.Background(), alice, "doc-1")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	defer f.Body.Close()
	body, _ := io.ReadAll(f.Body)
	if f.FileName != "invoice.png" || f.ContentType != "image/png" || string(body) != "png-bytes" {
		t.Fatalf("file = %+v body = %q", f, body)
	}
}

func TestDownloadMissingObject(t *testing.T) {
	svc, _, _, fetcher := seededDocService(t)
	delete(fetcher.objects, "1/abc.png")
	if _, err := svc.Download(context.Background(), alice, "doc-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Download(context.Background(), bob, "doc-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign owner, got %v", err)
	}
}

func TestUploadDelegatesToPipeline(t *testing.T) {
	explanation := "ok"
	ing := &fakeIngester{res: &model.IngestResult{ID: "doc-9", Explanation: &explanation}}
	svc := NewDocumentService(newMemDocRepo(), ing, &fakeAnswerer{}, &fakeFetcher{}, nil)

	in := pipeline.Input{Owner: alice, FilePath: "/tmp/x", FileName: "x.png", MimeType: "image/png"}
	res, err := svc.Upload(context.Background(), in)
	if err != nil || res.ID != "doc-9" {
		t.Fatalf("Upload = %+v, %v", res, err)
	}
	if ing.in != in {
		t.Fatalf("pipeline got %+v", ing.in)
	}
}
