package download

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/bogem/id3v2"
	"github.com/cratedig/cratedig/internal/models"
	"github.com/cratedig/cratedig/internal/shared"
)

// Tagger injects descriptive metadata into MPEG audio files as ID3v2 frames.
// It is the export stage of the pipeline: one fixed preset, MPEG audio in,
// tagged MPEG audio out.
type Tagger struct{}

// Compatible reports whether the file at path holds an MPEG audio stream the
// tagger can export. Accepts files starting with an ID3v2 header or an MPEG
// frame sync.
func (Tagger) Compatible(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	header := make([]byte, 3)
	if _, err := io.ReadFull(f, header); err != nil {
		return false
	}
	if bytes.Equal(header, []byte("ID3")) {
		return true
	}
	return header[0] == 0xFF && header[1]&0xE0 == 0xE0
}

// WriteTags writes title, album and artist frames to the file at path, plus a
// front-cover picture frame when artwork bytes are present. Existing cover
// pictures are replaced.
func (Tagger) WriteTags(path string, meta models.Metadata) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidExportSession, err)
	}
	defer tag.Close()

	tag.SetTitle(meta.Title)
	tag.SetAlbum(meta.Album)
	tag.SetArtist(meta.Artists)

	if meta.Artwork != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     meta.Artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return fmt.Errorf("failed to save tags: %w", err)
	}
	return nil
}
