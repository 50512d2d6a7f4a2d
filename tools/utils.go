package tools

import (
	"encoding/json"
	"path/filepath"
)

const (
	ChunkArchiveFilePrefix = "chunk-"
	ArchiveExtension       = ".bricks"
)

func FmtJSONString(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "marshal data fail"
	}
	return string(data)
}

func GetFilenameWithoutExtension(filePath string) string {
	nameWext := filepath.Base(filePath)
	extension := filepath.Ext(nameWext)
	return nameWext[0 : len(nameWext)-len(extension)]
}

// Archive written by the index command for the given point file
func ChunkArchiveName(filePath string) string {
	return ChunkArchiveFilePrefix + GetFilenameWithoutExtension(filePath) + ArchiveExtension
}
