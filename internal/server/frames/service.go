// Package frames implements the video-to-archive extraction pipeline:
// workspace lifecycle, transcoder invocation, archive packaging, storage
// upload, and completion notification.
package frames

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/frameextractor/frameextractor/internal/common"
	"github.com/frameextractor/frameextractor/internal/filex"
	"github.com/frameextractor/frameextractor/internal/logging"
	"github.com/frameextractor/frameextractor/internal/server/archives"
	"github.com/frameextractor/frameextractor/internal/server/mailer"
)

// allowedExtensions is the video container allow-list.
var allowedExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".avi": true,
}

// Uploader puts a local file into object storage and returns its public
// URL. Satisfied by archives.Store.
type Uploader interface {
	Upload(ctx context.Context, key, filePath string) (string, error)
}

// EmailResolver returns the decrypted notification address of an account.
// Satisfied by accounts.Service.
type EmailResolver interface {
	ResolveEmail(ctx context.Context, username string) (string, error)
}

// Service runs one extraction job per call. Jobs are independent: each
// owns an exclusively-scoped workspace, so concurrent invocations need no
// in-process locking.
type Service struct {
	store      Uploader
	resolver   EmailResolver
	mail       mailer.Mailer
	tasks      mailer.Submitter
	transcoder Transcoder
	maxBytes   int64
}

func NewService(store Uploader, resolver EmailResolver, mail mailer.Mailer,
	tasks mailer.Submitter, transcoder Transcoder, maxBytes int64) *Service {
	return &Service{
		store:      store,
		resolver:   resolver,
		mail:       mail,
		tasks:      tasks,
		transcoder: transcoder,
		maxBytes:   maxBytes,
	}
}

// Process validates the request, extracts frames at the given interval,
// packages them into a single archive, uploads it, schedules the
// completion notification, and returns the archive's public URL. The
// workspace is removed on every exit path; a failed job leaves nothing
// behind and must be resubmitted from scratch.
func (s *Service) Process(ctx context.Context, video io.Reader, filename string, size int64, interval int, username string) (string, error) {
	if err := s.validate(filename, size, interval); err != nil {
		return "", err
	}

	ws, err := filex.NewWorkspace("frames-job-")
	if err != nil {
		return "", fmt.Errorf("create workspace: %w", err)
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			logging.FromContext(ctx).Error("remove workspace", "dir", ws.Root(), "error", err)
		}
	}()

	videoPath := ws.Join(filepath.Base(filename))
	if err := saveUpload(videoPath, video); err != nil {
		return "", err
	}

	framesDir, err := ws.EnsureSubDir("frames")
	if err != nil {
		return "", err
	}

	outputPattern := filepath.Join(framesDir, "frame_%04d.jpg")
	if err := s.transcoder.ExtractFrames(ctx, videoPath, outputPattern, interval); err != nil {
		return "", err
	}

	names, err := listFrames(framesDir)
	if err != nil {
		return "", err
	}
	if len(names) == 0 {
		return "", common.ErrNoFramesExtracted
	}

	zipPath := ws.Join("frames" + archives.Ext)
	if err := buildArchive(framesDir, zipPath, names); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s%s", username, uuid.New(), archives.Ext)
	url, err := s.store.Upload(ctx, key, zipPath)
	if err != nil {
		return "", err
	}

	s.notify(ctx, username, url)

	return url, nil
}

func (s *Service) validate(filename string, size int64, interval int) error {
	if interval <= 0 {
		return fmt.Errorf("%w: interval must be greater than 0", common.ErrValidation)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: unsupported video format %q", common.ErrValidation, ext)
	}

	if s.maxBytes > 0 && size > s.maxBytes {
		return fmt.Errorf("%w: file exceeds the %d byte limit", common.ErrValidation, s.maxBytes)
	}

	return nil
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}

	return nil
}

// notify resolves the owner's email and schedules the completion message.
// Best effort: a resolution failure is logged and the response proceeds.
func (s *Service) notify(ctx context.Context, username, url string) {
	email, err := s.resolver.ResolveEmail(ctx, username)
	if err != nil {
		logging.FromContext(ctx).Error("resolve notification address", "username", username, "error", err)
		return
	}

	body := fmt.Sprintf("Hello %s,\n\nYour frame archive is ready: %s", username, url)

	s.tasks.Submit("frames-ready-email", func(ctx context.Context) error {
		return s.mail.Send(ctx, email, "Your frames are ready", body)
	})
}
