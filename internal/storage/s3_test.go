package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/go-cmp/cmp"

	"github.com/starford/folio/internal/apperr"
)

// fakeS3 is an in-memory s3API honouring Prefix and Delimiter on listings.
type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(v))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	prefix := aws.ToString(in.Prefix)
	delim := aws.ToString(in.Delimiter)
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{}
	seen := map[string]bool{}
	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		rest := k[len(prefix):]
		if i := strings.Index(rest, delim); delim != "" && i >= 0 {
			cp := prefix + rest[:i+1]
			if !seen[cp] {
				seen[cp] = true
				out.CommonPrefixes = append(out.CommonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
			}
			continue
		}
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3_RoundTrip(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{}}
	b := newS3WithClient(fake, "bucket", "site")
	ctx := context.Background()

	if err := b.Set(ctx, "content/posts/en/a.md", []byte("---\ntitle: A\n---\nbody")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, ok := fake.objects["site/content/posts/en/a.md"]; !ok {
		t.Fatalf("object not stored under prefix: %v", fake.objects)
	}
	got, err := b.Get(ctx, "content/posts/en/a.md")
	if err != nil || !strings.Contains(string(got), "title: A") {
		t.Fatalf("Get = %q, %v", got, err)
	}
	if _, err := b.Get(ctx, "content/posts/en/zz.md"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing Get err = %v, want ErrNotFound", err)
	}
}

func TestS3_ListAndDelete(t *testing.T) {
	fake := &fakeS3{objects: map[string][]byte{
		"content/posts/en/a.md":   nil,
		"content/posts/en/b.json": nil,
		"content/posts/old.json":  nil,
	}}
	b := newS3WithClient(fake, "bucket", "")
	ctx := context.Background()

	names, err := b.List(ctx, "content/posts")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if diff := cmp.Diff([]string{"en", "old.json"}, names); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}

	if err := b.Delete(ctx, "content/posts/old.json"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := b.Delete(ctx, "content/posts/old.json"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second Delete err = %v, want ErrNotFound", err)
	}
	if ok, _ := b.Exists(ctx, "content/posts/en/a.md"); !ok {
		t.Error("Exists = false for stored object")
	}
}
