package app

import (
	"log"
	"mime"
)

func init() {
	// Some minimal container images ship without a mime.types database;
	// make sure uploaded media is served with a usable Content-Type.
	ensureMimeType(".webp", "image/webp")
	ensureMimeType(".mp4", "video/mp4")
	ensureMimeType(".webm", "video/webm")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}
