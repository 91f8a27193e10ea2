package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/storelens/internal/app"
	"github.com/bryanwahyu/storelens/internal/infra/storage"
	"github.com/bryanwahyu/storelens/internal/middleware"
)

var (
	uploadTenant string
	uploadRemove bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>...",
	Short: "Upload photos or videos to object storage",
	Long: `Uploads media files to the configured bucket and prints one line per file
with the asset id and the URI to put into a store profile.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVar(&uploadTenant, "tenant", "local", "tenant the media belongs to")
	uploadCmd.Flags().BoolVar(&uploadRemove, "remove", false, "delete local files after a successful upload")
}

func runUpload(cmd *cobra.Command, args []string) error {
	if !cfg.Minio.Enabled {
		return errors.New("object storage is disabled; enable minio in the config")
	}
	if err := middleware.ValidateTenantID(uploadTenant); err != nil {
		return err
	}
	for _, path := range args {
		if _, err := middleware.ValidateUploadType(storage.ContentTypeFor(path)); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	return withApp(cmd.Context(), app.Options{}, func(a *app.App) error {
		upload := a.Objects.Upload
		if uploadRemove {
			upload = a.Objects.UploadAndCleanup
		}
		for _, path := range args {
			id := uuid.NewString()
			key := storage.MediaKey(uploadTenant, id+strings.ToLower(filepath.Ext(path)))
			url, err := upload(cmd.Context(), path, key)
			if err != nil {
				return fmt.Errorf("upload %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", id, a.Objects.URI(key), url)
		}
		return nil
	})
}
