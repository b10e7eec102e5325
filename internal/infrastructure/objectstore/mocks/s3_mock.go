package mocks

import (
	"context"
	"io"
	"net/http"
	"sync"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutCall records one PutObject request.
type PutCall struct {
	Bucket      string
	Key         string
	ContentType string
	Body        []byte
}

// MockObjectAPI records uploads in memory.
type MockObjectAPI struct {
	mu       sync.Mutex
	PutCalls []PutCall
	PutErr   error
}

func NewMockObjectAPI() *MockObjectAPI {
	return &MockObjectAPI{}
}

func (m *MockObjectAPI) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PutErr != nil {
		return nil, m.PutErr
	}
	var body []byte
	if params.Body != nil {
		b, err := io.ReadAll(params.Body)
		if err != nil {
			return nil, err
		}
		body = b
	}
	m.PutCalls = append(m.PutCalls, PutCall{
		Bucket:      deref(params.Bucket),
		Key:         deref(params.Key),
		ContentType: deref(params.ContentType),
		Body:        body,
	})
	return &s3.PutObjectOutput{}, nil
}

func (m *MockObjectAPI) Calls() []PutCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PutCall(nil), m.PutCalls...)
}

// MockPresigner returns a fake signed URL built from the bucket and key.
type MockPresigner struct {
	mu           sync.Mutex
	PresignCalls []*s3.PutObjectInput
	Expires      []int64
	Err          error
}

func NewMockPresigner() *MockPresigner {
	return &MockPresigner{}
}

func (m *MockPresigner) PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PresignCalls = append(m.PresignCalls, params)
	var opts s3.PresignOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	m.Expires = append(m.Expires, int64(opts.Expires.Seconds()))
	if m.Err != nil {
		return nil, m.Err
	}
	return &v4.PresignedHTTPRequest{
		URL:    "https://signed.example.com/" + deref(params.Bucket) + "/" + deref(params.Key) + "?X-Amz-Signature=test",
		Method: http.MethodPut,
	}, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
