package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeS3 keeps objects in memory.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestPutThenGet(t *testing.T) {
	store := New(newFakeS3(), "interviews", nil)
	ctx := context.Background()

	if err := store.Put(ctx, "audio-1.wav", strings.NewReader("RIFF"), "audio/wav"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := store.Get(ctx, "audio-1.wav")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "RIFF" {
		t.Fatalf("Get = %q, want RIFF", got)
	}
}

func TestGetMissingKey(t *testing.T) {
	store := New(newFakeS3(), "interviews", nil)

	_, err := store.Get(context.Background(), "nope.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPutError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("access denied")
	store := New(fake, "interviews", nil)

	err := store.Put(context.Background(), "audio-1.wav", strings.NewReader("x"), "")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("err = %v, want wrapped access denied", err)
	}
}

func TestURI(t *testing.T) {
	store := New(newFakeS3(), "interviews", nil)
	if got := store.URI("audio-1.wav"); got != "s3://interviews/audio-1.wav" {
		t.Fatalf("URI = %q", got)
	}
}
