package rwlock

import "sync"

// readerWriterMutex is a thin alias so RWLock's zero value embeds a
// ready-to-use sync.RWMutex without exporting it directly.
type readerWriterMutex = sync.RWMutex
