package service

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/shard-legends/crafting-source-service/internal/models"
	"github.com/tidwall/gjson"
)

// ReadVersionMetadata читает version.json. Любая проблема оборачивается в ErrVersionMetadata.
//
// pack_version встречается в трех формах: одно число для обоих пакетов,
// объект {"resource", "data"} и объект с парами *_major/*_minor.
func ReadVersionMetadata(fsys fs.FS, name string) (models.VersionMetadata, error) {
	raw, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) {
		return models.VersionMetadata{}, fmt.Errorf("%w: %s is missing", ErrVersionMetadata, name)
	}
	if err != nil {
		return models.VersionMetadata{}, fmt.Errorf("%w: %w", ErrVersionMetadata, err)
	}
	if !gjson.ValidBytes(raw) {
		return models.VersionMetadata{}, fmt.Errorf("%w: %s is not valid JSON", ErrVersionMetadata, name)
	}

	doc := gjson.ParseBytes(raw)
	meta := models.VersionMetadata{
		ID:            scalar(doc.Get("id")),
		ReleaseTarget: scalar(doc.Get("release_target")),
	}

	pack := doc.Get("pack_version")
	switch {
	case pack.Type == gjson.Number:
		meta.ResourcePackVersion = pack.Raw
		meta.DataPackVersion = pack.Raw
	case pack.IsObject():
		meta.ResourcePackVersion = packPart(pack, "resource")
		meta.DataPackVersion = packPart(pack, "data")
	}

	if err := models.ValidateVersionMetadata(meta); err != nil {
		return models.VersionMetadata{}, fmt.Errorf("%w: %s: %w", ErrVersionMetadata, name, err)
	}
	return meta, nil
}

func packPart(pack gjson.Result, name string) string {
	if v := scalar(pack.Get(name)); v != "" {
		return v
	}
	major := scalar(pack.Get(name + "_major"))
	if major == "" {
		return ""
	}
	if minor := scalar(pack.Get(name + "_minor")); minor != "" && minor != "0" {
		return major + "." + minor
	}
	return major
}

// scalar возвращает строку или число как текст, для остальных типов - ""
func scalar(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	}
	return ""
}
