package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turahe/mediacore/internal/coreerrors"
	"github.com/turahe/mediacore/internal/domain/entities"
	respath "github.com/turahe/mediacore/internal/domain/path"
)

// presignExpiry is how long a presigned GET URI remains valid.
const presignExpiry = 5 * time.Minute

// cacheControl is applied to every uploaded object; media bytes are
// immutable once stored (a new MediaFile gets a new id), so they are
// safe to cache for the long term.
const cacheControl = "max-age=1314000, immutable"

// Remote is the S3-compatible object store backing a single Storage
// row (one bucket/region/credential set per catalog). Delete performs a
// real RemoveObject: leaving it a no-op would mean PruneMediaFiles and
// DeleteMedia quietly leak remote bytes forever unless an operator also
// wires a bucket lifecycle policy, which is not this process's default.
// TestingMode still short-circuits it for fixtures that must not touch
// an object store at all.
type Remote struct {
	client     *minio.Client
	bucket     string
	pathPrefix string
	publicURL  string
	testing    bool
}

// NewRemote builds a client scoped to one catalog's Storage row.
func NewRemote(st entities.Storage, testing bool) (*Remote, error) {
	secure := true
	endpoint := "s3.amazonaws.com"
	if st.EndpointURL != nil && *st.EndpointURL != "" {
		endpoint, secure = splitEndpoint(*st.EndpointURL)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(st.KeyID, st.Secret, ""),
		Secure: secure,
		Region: st.Region,
	})
	if err != nil {
		return nil, coreerrors.S3Error(err)
	}

	prefix := ""
	if st.PathPrefix != nil {
		prefix = strings.Trim(*st.PathPrefix, "/")
	}
	publicURL := ""
	if st.PublicURL != nil {
		publicURL = strings.TrimRight(*st.PublicURL, "/")
	}

	return &Remote{client: client, bucket: st.Bucket, pathPrefix: prefix, publicURL: publicURL, testing: testing}, nil
}

func splitEndpoint(url string) (endpoint string, secure bool) {
	switch {
	case strings.HasPrefix(url, "https://"):
		return strings.TrimPrefix(url, "https://"), true
	case strings.HasPrefix(url, "http://"):
		return strings.TrimPrefix(url, "http://"), false
	default:
		return url, true
	}
}

func (r *Remote) key(path respath.ResourcePath) string {
	remote := path.RemotePath()
	if r.pathPrefix == "" {
		return remote
	}
	return r.pathPrefix + "/" + remote
}

func (r *Remote) Exists(ctx context.Context, path respath.FilePath) (bool, error) {
	_, err := r.client.StatObject(ctx, r.bucket, r.key(path), minio.StatObjectOptions{})
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, coreerrors.S3Error(err)
	}
	return true, nil
}

func (r *Remote) ListFiles(ctx context.Context, prefix respath.ResourcePath) (map[string]int64, error) {
	files := make(map[string]int64)

	listPrefix := r.pathPrefix
	if prefix != nil {
		listPrefix = r.key(prefix)
	}
	if listPrefix != "" {
		listPrefix += "/"
	}

	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: listPrefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, coreerrors.S3Error(obj.Err)
		}
		remote := r.stripPrefix(obj.Key)
		if _, err := respath.Parse(remote); err == nil {
			files[remote] = obj.Size
		}
	}
	return files, nil
}

func (r *Remote) stripPrefix(key string) string {
	if r.pathPrefix == "" {
		return key
	}
	return strings.TrimPrefix(strings.TrimPrefix(key, r.pathPrefix), "/")
}

func (r *Remote) Pull(ctx context.Context, path respath.FilePath, target string) error {
	if err := r.client.FGetObject(ctx, r.bucket, r.key(path), target, minio.GetObjectOptions{}); err != nil {
		return coreerrors.S3Error(err)
	}
	return nil
}

func (r *Remote) Push(ctx context.Context, source string, path respath.FilePath, mimetype string) error {
	if r.testing {
		return nil
	}
	_, err := r.client.FPutObject(ctx, r.bucket, r.key(path), source, minio.PutObjectOptions{
		ContentType:  mimetype,
		CacheControl: cacheControl,
	})
	if err != nil {
		return coreerrors.S3Error(err)
	}
	return nil
}

// Delete removes the object at path, or every object under it when path
// names a directory-like resource (catalog/item/file rather than a
// single file). Testing mode short-circuits to a no-op.
func (r *Remote) Delete(ctx context.Context, path respath.ResourcePath) error {
	if r.testing {
		return nil
	}

	if _, ok := path.(respath.FilePath); ok {
		if err := r.client.RemoveObject(ctx, r.bucket, r.key(path), minio.RemoveObjectOptions{}); err != nil {
			if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
				return nil
			}
			return coreerrors.S3Error(err)
		}
		return nil
	}

	prefix := r.key(path) + "/"
	objects := r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	keys := make(chan minio.ObjectInfo)
	go func() {
		defer close(keys)
		for obj := range objects {
			if obj.Err != nil {
				continue
			}
			keys <- obj
		}
	}()

	for result := range r.client.RemoveObjects(ctx, r.bucket, keys, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return coreerrors.S3Error(result.Err)
		}
	}
	return nil
}

// Prune is a no-op: object stores have no directory structure to clean
// up once their contained objects are gone.
func (r *Remote) Prune(ctx context.Context, path respath.ResourcePath) error {
	return nil
}

// OnlineURI returns a URL suitable for a GET redirect: the configured
// public URL joined to the object key if set, otherwise a 5-minute
// presigned S3 URL carrying response-content-type and, if filename is
// given, a response-content-disposition attachment header.
func (r *Remote) OnlineURI(ctx context.Context, path respath.FilePath, mimetype string, filename string) (string, error) {
	if r.publicURL != "" {
		return r.publicURL + "/" + path.RemotePath(), nil
	}

	reqParams := make(url.Values)
	reqParams.Set("response-content-type", mimetype)
	if filename != "" {
		reqParams.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	} else {
		reqParams.Set("response-content-disposition", "inline")
	}

	u, err := r.client.PresignedGetObject(ctx, r.bucket, r.key(path), presignExpiry, reqParams)
	if err != nil {
		return "", coreerrors.S3Error(err)
	}
	return u.String(), nil
}
