package music

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var playableExtensions = map[string]struct{}{
	".mp3":  {},
	".ogg":  {},
	".wav":  {},
	".m4a":  {},
	".flac": {},
	".webm": {},
}

type Track struct {
	File  string `json:"file"`
	Title string `json:"title"`
	Src   string `json:"src"`
}

type MusicService interface {
	// ListTracks returns the playable files in the music directory sorted by file name.
	ListTracks(ctx context.Context) ([]Track, error)

	// TrackPath resolves a file name from the playlist to its location on disk.
	TrackPath(ctx context.Context, file string) (string, error)
}

type ServiceOptions struct {
	Dir        string
	PublicPath string
}

type musicService struct {
	logger  *log.Logger
	options ServiceOptions
}

func NewMusicService(logger *log.Logger, options ServiceOptions) MusicService {
	options.PublicPath = strings.TrimSuffix(options.PublicPath, "/")

	return &musicService{
		logger:  logger,
		options: options,
	}
}

func (s *musicService) ListTracks(ctx context.Context) ([]Track, error) {
	logger := log.GetLoggerInstanceFromContext(ctx, s.logger)

	entries, err := os.ReadDir(s.options.Dir)
	if err != nil {
		logger.Error("Failed to read music directory", "dir", s.options.Dir, "error", err)
		return []Track{}, apperrors.NewInternalServerError("unable to read music directory", err)
	}

	tracks := make([]Track, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsPlayable(entry.Name()) {
			continue
		}
		tracks = append(tracks, s.track(entry.Name()))
	}

	sort.Slice(tracks, func(i, j int) bool {
		return tracks[i].File < tracks[j].File
	})

	return tracks, nil
}

func (s *musicService) TrackPath(ctx context.Context, file string) (string, error) {
	if file != filepath.Base(file) || !IsPlayable(file) {
		return "", apperrors.NewNotFoundError("track not found", nil)
	}

	path := filepath.Join(s.options.Dir, file)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", apperrors.NewNotFoundError("track not found", err)
	}

	return path, nil
}

func (s *musicService) track(file string) Track {
	return Track{
		File:  file,
		Title: TrackTitle(file),
		Src:   fmt.Sprintf("%s/%s", s.options.PublicPath, url.PathEscape(file)),
	}
}

// TrackTitle turns "morning-cafe_loop.mp3" into "Morning Cafe Loop".
func TrackTitle(file string) string {
	name := strings.TrimSuffix(file, filepath.Ext(file))
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)

	// Casers keep state between calls and cannot be shared across requests.
	return cases.Title(language.English).String(strings.Join(strings.Fields(name), " "))
}

// IsPlayable reports whether name is a visible file with an audio extension.
func IsPlayable(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}

	_, ok := playableExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
