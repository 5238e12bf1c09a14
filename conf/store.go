package conf

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/google/renameio/v2"
	jsoniter "github.com/json-iterator/go"
)

var Json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore 把刷新后的凭证写回配置文件, 其它字段原样保留
type FileStore struct {
	mux  sync.Mutex
	path string
	perm os.FileMode
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, perm: 0o600}
}

// SaveTokens 先写临时文件再 rename, 读取方不会看到写了一半的文件
func (f *FileStore) SaveTokens(accessToken, refreshToken string) error {
	f.mux.Lock()
	defer f.mux.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", f.path, err)
	}
	doc := map[string]interface{}{}
	dec := Json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decode %s: %w", f.path, err)
	}

	section, _ := doc["ctrader"].(map[string]interface{})
	if section == nil {
		section = map[string]interface{}{}
	}
	section["access_token"] = accessToken
	if refreshToken != "" {
		section["refresh_token"] = refreshToken
	}
	doc["ctrader"] = section

	out, err := Json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	perm := f.perm
	if st, err := os.Stat(f.path); err == nil {
		perm = st.Mode().Perm()
	}
	return renameio.WriteFile(f.path, append(out, '\n'), perm)
}
