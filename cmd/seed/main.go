// Command seed populates the local-library fallback table: given a list of
// external video IDs, it downloads, normalizes, and registers each as a
// LibraryTrack the offline-fallback path in internal/playback and the
// /stream offline redirect can pick from when a live resolve fails. Adapted from
// cmd/download/main.go's download-then-normalize shell-out pair, retargeted
// from per-playlist S3 upload to internal/library's SQLite store.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/waveradio/core/internal/config"
	"github.com/waveradio/core/internal/extractor"
	"github.com/waveradio/core/internal/library"
	"github.com/waveradio/core/internal/models"
)

func main() {
	idsFlag := flag.String("ids", "", "comma-separated list of external video IDs to seed")
	flag.Parse()

	if *idsFlag == "" {
		log.Fatal("Please provide external IDs using -ids (comma-separated)")
	}
	ids := strings.Split(*idsFlag, ",")

	cfg := config.Load()

	db, err := sql.Open("sqlite3", cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	tracks, err := library.NewSQLiteTrackStore(db)
	if err != nil {
		log.Fatalf("Failed to init track store: %v", err)
	}

	ytdlp, err := extractor.NewYtDlp(cfg.Extractor.YtDlpPath)
	if err != nil {
		log.Fatalf("Failed to init extractor: %v", err)
	}

	if err := os.MkdirAll(cfg.Filestore.LocalDir, 0755); err != nil {
		log.Fatalf("Failed to create library directory: %v", err)
	}

	for i, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		log.Printf("[%d/%d] Seeding %s", i+1, len(ids), id)

		if existing, err := tracks.GetByYouTubeID(id); err == nil && existing != nil {
			log.Printf("Already in library, skipping")
			continue
		}

		info, err := ytdlp.GetVideoInfo(context.Background(), id)
		if err != nil {
			log.Printf("Failed to fetch metadata for %s: %v", id, err)
			continue
		}

		downloadedPath, err := ytdlp.DownloadAudio(context.Background(), id, cfg.Filestore.LocalDir)
		if err != nil {
			log.Printf("Failed to download %s: %v", id, err)
			continue
		}

		normalizedPath := filepath.Join(cfg.Filestore.LocalDir, fmt.Sprintf("%s_normalized.mp3", id))
		normalizeCmd := exec.Command("ffmpeg",
			"-i", downloadedPath,
			"-af", "loudnorm=I=-16:TP=-1.5:LRA=11",
			"-ar", "44100",
			"-y",
			normalizedPath,
		)
		if err := normalizeCmd.Run(); err != nil {
			log.Printf("Failed to normalize %s, keeping raw download: %v", id, err)
			normalizedPath = downloadedPath
		} else {
			os.Remove(downloadedPath)
		}

		track := &models.LibraryTrack{
			YouTubeID: id,
			Title:     info.Title,
			Artist:    info.Artist,
			Duration:  int(info.Duration.Seconds()),
			FilePath:  normalizedPath,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}
		if err := tracks.Create(track); err != nil {
			log.Printf("Failed to register %s in library: %v", id, err)
			continue
		}

		log.Printf("Seeded %s - %s", track.Artist, track.Title)
	}

	log.Println("Finished seeding library")
}
