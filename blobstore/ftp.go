package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jlaffaye/ftp"
	"k8s.io/klog/v2"
)

type FTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// BaseURL is the public http location that serves the FTP root
	BaseURL string `yaml:"baseURL"`
	Dir     string `yaml:"dir"`
}

// ftpConn is satisfied by *ftp.ServerConn
type ftpConn interface {
	Stor(path string, r io.Reader) error
	MakeDir(path string) error
	Quit() error
}

type dialFunc func(ctx context.Context) (ftpConn, error)

// Idle connections kept for reuse
const maxIdleFTPConns = 4

// FTPStore uploads over pooled connections, a connection serves one upload at a time
type FTPStore struct {
	config *FTPConfig
	dial   dialFunc

	mu   sync.Mutex
	idle []ftpConn
}

func NewFTPStore(config *FTPConfig) *FTPStore {
	s := &FTPStore{config: config}
	s.dial = s.dialServer
	return s
}

func (s *FTPStore) dialServer(ctx context.Context) (ftpConn, error) {
	addr := net.JoinHostPort(s.config.Host, s.config.Port)
	conn, err := ftp.Dial(addr, ftp.DialWithContext(ctx), ftp.DialWithTimeout(10*time.Second))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to FTP: %w", err)
	}
	if err := conn.Login(s.config.User, s.config.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login to FTP: %w", err)
	}
	return conn, nil
}

func (s *FTPStore) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return "", err
	}
	remotePath := path.Join(strings.Trim(s.config.Dir, "/"), fmt.Sprintf("%s.%s", uuid.New().String(), Extension(format)))

	conn, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}

	// closing the connection is the only way to abort a transfer in progress
	stop := context.AfterFunc(ctx, func() { conn.Quit() })
	err = conn.Stor(remotePath, bytes.NewReader(data))
	if !stop() {
		return "", fmt.Errorf("failed to upload file: %w", ctx.Err())
	}
	if err != nil {
		// drop the connection, a later upload dials a fresh one
		conn.Quit()
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	s.release(conn)
	klog.V(3).Infof("Uploaded %s to ftp as %s", filename, remotePath)
	return s.GenerateURL(remotePath), nil
}

// acquire hands out an idle connection or dials a new one
func (s *FTPStore) acquire(ctx context.Context) (ftpConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	if n := len(s.idle); n > 0 {
		conn := s.idle[n-1]
		s.idle = s.idle[:n-1]
		s.mu.Unlock()
		return conn, nil
	}
	s.mu.Unlock()

	conn, err := s.dial(ctx)
	if err != nil {
		return nil, err
	}
	s.makeDirs(conn)
	return conn, nil
}

func (s *FTPStore) release(conn ftpConn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.idle) >= maxIdleFTPConns {
		conn.Quit()
		return
	}
	s.idle = append(s.idle, conn)
}

// makeDirs creates every level of the upload directory
func (s *FTPStore) makeDirs(conn ftpConn) {
	dir := strings.Trim(s.config.Dir, "/")
	if dir == "" {
		return
	}
	current := ""
	for _, segment := range strings.Split(dir, "/") {
		if segment == "" {
			continue
		}
		current = path.Join(current, segment)
		// fails when the directory exists already
		if err := conn.MakeDir(current); err != nil {
			klog.V(3).Infof("FTP MakeDir %s: %v", current, err)
		}
	}
}

// GenerateURL generates the full URL for a file
func (s *FTPStore) GenerateURL(remotePath string) string {
	return strings.TrimRight(s.config.BaseURL, "/") + "/" + remotePath
}

// Close closes the idle FTP connections
func (s *FTPStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, conn := range s.idle {
		if err := conn.Quit(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.idle = nil
	return firstErr
}
