package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFTPConn struct {
	mu      sync.Mutex
	files   map[string][]byte
	dirs    []string
	storErr error
	dirErr  error
	quit    bool
	// when set Stor waits here until the channel closes or the conn quits
	block   chan struct{}
	started chan struct{}
	quitCh  chan struct{}
}

func newFakeFTPConn() *fakeFTPConn {
	return &fakeFTPConn{files: map[string][]byte{}, quitCh: make(chan struct{})}
}

func (c *fakeFTPConn) Stor(path string, r io.Reader) error {
	if c.block != nil {
		close(c.started)
		select {
		case <-c.block:
		case <-c.quitCh:
			return errors.New("connection closed")
		}
	}
	if c.storErr != nil {
		return c.storErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = buf.Bytes()
	return nil
}

func (c *fakeFTPConn) MakeDir(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dirs = append(c.dirs, path)
	return c.dirErr
}

func (c *fakeFTPConn) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.quit {
		c.quit = true
		close(c.quitCh)
	}
	return nil
}

func (c *fakeFTPConn) isQuit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.quit
}

func (c *fakeFTPConn) fileCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.files)
}

func newFakeFTPStoreWithDir(dir string, conns ...*fakeFTPConn) (*FTPStore, *int) {
	var mu sync.Mutex
	dials := 0
	store := NewFTPStore(&FTPConfig{BaseURL: "https://cdn.example.com/", Dir: dir})
	store.dial = func(ctx context.Context) (ftpConn, error) {
		mu.Lock()
		defer mu.Unlock()
		if dials >= len(conns) {
			return nil, errors.New("dial refused")
		}
		conn := conns[dials]
		dials++
		return conn, nil
	}
	return store, &dials
}

func newFakeFTPStore(conns ...*fakeFTPConn) (*FTPStore, *int) {
	return newFakeFTPStoreWithDir("/captures/", conns...)
}

func TestFTPUpload(t *testing.T) {
	conn := newFakeFTPConn()
	store, dials := newFakeFTPStore(conn)
	data := jpegBytes(t)

	url, err := store.Upload(context.Background(), data, "a.jpg")
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/captures/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
	assert.Equal(t, []string{"captures"}, conn.dirs)

	remotePath := strings.TrimPrefix(url, "https://cdn.example.com/")
	assert.Equal(t, data, conn.files[remotePath])

	// connection is reused
	_, err = store.Upload(context.Background(), pngBytes(t), "b.png")
	require.Nil(t, err)
	assert.Equal(t, 1, *dials)
	assert.Len(t, conn.files, 2)
}

func TestFTPUploadRejectsFormat(t *testing.T) {
	store, dials := newFakeFTPStore()

	_, err := store.Upload(context.Background(), gifBytes(t), "a.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.Equal(t, 0, *dials)
}

func TestFTPUploadRedialsAfterFailure(t *testing.T) {
	broken := newFakeFTPConn()
	broken.storErr = errors.New("426 connection closed")
	healthy := newFakeFTPConn()
	store, dials := newFakeFTPStore(broken, healthy)

	_, err := store.Upload(context.Background(), pngBytes(t), "a.png")
	assert.NotNil(t, err)
	assert.True(t, broken.quit)

	_, err = store.Upload(context.Background(), pngBytes(t), "a.png")
	assert.Nil(t, err)
	assert.Equal(t, 2, *dials)
	assert.Len(t, healthy.files, 1)
}

func TestFTPDialFailure(t *testing.T) {
	store, _ := newFakeFTPStore()

	_, err := store.Upload(context.Background(), pngBytes(t), "a.png")
	assert.EqualError(t, err, "dial refused")
}

func TestFTPClose(t *testing.T) {
	conn := newFakeFTPConn()
	store, _ := newFakeFTPStore(conn)
	assert.Nil(t, store.Close())

	_, err := store.Upload(context.Background(), pngBytes(t), "a.png")
	require.Nil(t, err)
	assert.Nil(t, store.Close())
	assert.True(t, conn.quit)
}

func TestFTPUploadCreatesNestedDirs(t *testing.T) {
	conn := newFakeFTPConn()
	conn.dirErr = errors.New("550 directory exists")
	store, _ := newFakeFTPStoreWithDir("/media/captures/2024/", conn)

	url, err := store.Upload(context.Background(), pngBytes(t), "a.png")
	require.Nil(t, err)
	assert.Equal(t, []string{"media", "media/captures", "media/captures/2024"}, conn.dirs)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example.com/media/captures/2024/"))
}

func TestFTPSlowUploadDoesNotBlockOthers(t *testing.T) {
	slow := newFakeFTPConn()
	slow.block = make(chan struct{})
	slow.started = make(chan struct{})
	fast := newFakeFTPConn()
	store, dials := newFakeFTPStore(slow, fast)

	done := make(chan error, 1)
	go func() {
		_, err := store.Upload(context.Background(), pngBytes(t), "slow.png")
		done <- err
	}()
	<-slow.started

	_, err := store.Upload(context.Background(), pngBytes(t), "fast.png")
	require.Nil(t, err)
	assert.Equal(t, 1, fast.fileCount())
	assert.Equal(t, 0, slow.fileCount())
	assert.Equal(t, 2, *dials)

	close(slow.block)
	require.Nil(t, <-done)
	assert.Equal(t, 1, slow.fileCount())
}

func TestFTPUploadCanceled(t *testing.T) {
	conn := newFakeFTPConn()
	conn.block = make(chan struct{})
	conn.started = make(chan struct{})
	store, _ := newFakeFTPStore(conn)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := store.Upload(ctx, pngBytes(t), "a.png")
		done <- err
	}()
	<-conn.started
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, conn.isQuit())
	assert.Empty(t, store.idle)
}
