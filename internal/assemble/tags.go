package assemble

import (
	"fmt"
	"os"

	"github.com/bogem/id3v2/v2"
)

// TagInfo carries the ID3 metadata for a finished broadcast.
type TagInfo struct {
	Title     string
	Artist    string
	Album     string
	Comment   string
	CoverPath string
}

// WriteTags writes an ID3v2.3 header so car radios and older players read the
// metadata. It reports whether cover art made it into the file: an unreadable
// cover drops the picture frame but keeps the text frames.
func WriteTags(path string, info TagInfo) (bool, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return false, fmt.Errorf("open for tagging: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(3)
	tag.SetDefaultEncoding(id3v2.EncodingUTF16)
	tag.SetTitle(info.Title)
	tag.SetArtist(info.Artist)
	tag.SetAlbum(info.Album)
	if info.Comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding:    id3v2.EncodingUTF16,
			Language:    "eng",
			Description: "",
			Text:        info.Comment,
		})
	}

	coverEmbedded := false
	if info.CoverPath != "" {
		if art, readErr := os.ReadFile(info.CoverPath); readErr == nil {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingISO,
				MimeType:    "image/png",
				PictureType: id3v2.PTFrontCover,
				Description: "Front cover",
				Picture:     art,
			})
			coverEmbedded = true
		}
	}

	if err := tag.Save(); err != nil {
		return false, fmt.Errorf("save tags: %w", err)
	}
	return coverEmbedded, nil
}
