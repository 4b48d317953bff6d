// Пакет version хранит сведения о сборке, заполняемые через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// String возвращает сведения о сборке одной строкой для логов.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
