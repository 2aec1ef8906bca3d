package files

// extensionKinds maps known file extensions to their media kind. Unknown
// extensions fall back to KindDocument.
var extensionKinds = map[string]MediaKind{
	".mp4":  KindVideo,
	".jpg":  KindImage,
	".jpeg": KindImage,
	".png":  KindImage,
	".gif":  KindImage,
	".webp": KindImage,
	".mp3":  KindAudio,
	".txt":  KindText,
	".md":   KindText,
	".htm":  KindText,
	".html": KindText,
}

// KindForExt resolves a lowercase extension to a media kind.
func KindForExt(ext string) MediaKind {
	if kind, ok := extensionKinds[ext]; ok {
		return kind
	}
	return KindDocument
}
