package reststore

import (
	"errors"
	"net/url"
	"strings"
)

// StorageResolver builds public object URLs of the form
// {endpoint}/storage/v1/object/public/{bucket}/{path}.
type StorageResolver struct {
	base   *url.URL
	bucket string
}

// NewStorageResolver creates a resolver for one bucket on endpoint.
func NewStorageResolver(endpoint, bucket string) (*StorageResolver, error) {
	if bucket == "" {
		return nil, errors.New("storage bucket is empty")
	}
	u, err := url.Parse(strings.TrimRight(endpoint, "/"))
	if err != nil {
		return nil, err
	}
	return &StorageResolver{base: u, bucket: bucket}, nil
}

func (r *StorageResolver) PublicURL(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", errors.New("empty object path")
	}
	segments := append([]string{"storage", "v1", "object", "public", r.bucket}, strings.Split(path, "/")...)
	return r.base.JoinPath(segments...).String(), nil
}
