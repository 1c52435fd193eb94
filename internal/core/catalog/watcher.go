package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"recipe-finder/internal/pkg/common"
)

// Watcher 監看目錄檔案變更並觸發重新載入
type Watcher struct {
	store    *Store
	dir      string
	names    map[string]bool
	debounce time.Duration
	fsw      *fsnotify.Watcher

	mu      sync.Mutex
	pending *time.Timer
	reloads chan struct{}
}

// NewWatcher 建立目錄監看器；只對三個資源檔名反應
func NewWatcher(store *Store, dir string, files Files, debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{
		store:    store,
		dir:      dir,
		names:    map[string]bool{files.Ingredients: true, files.Recipes: true, files.Substitutes: true},
		debounce: debounce,
		fsw:      fsw,
		reloads:  make(chan struct{}, 1),
	}, nil
}

// Run 阻塞直到 ctx 結束
func (w *Watcher) Run(ctx context.Context) {
	defer w.fsw.Close()
	common.LogInfo("開始監看食譜目錄", zap.String("dir", w.dir))

	for {
		select {
		case <-ctx.Done():
			w.mu.Lock()
			if w.pending != nil {
				w.pending.Stop()
			}
			w.mu.Unlock()
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			common.LogDebug("食譜目錄檔案變更",
				zap.String("file", event.Name),
				zap.String("op", event.Op.String()),
			)
			w.schedule()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			common.LogWarn("目錄監看錯誤", zap.Error(err))

		case <-w.reloads:
			_ = w.store.Reload(ctx)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	return w.names[filepath.Base(event.Name)]
}

// schedule 合併短時間內的多次變更為一次重新載入
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, func() {
		select {
		case w.reloads <- struct{}{}:
		default:
		}
	})
}
