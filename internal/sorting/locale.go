package sorting

import (
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// collate.Collator не потокобезопасен, поэтому один экземпляр под мьютексом
var (
	collatorMtx sync.Mutex
	collator    = collate.New(language.Japanese)
)

// CompareLocale сравнивает строки по японской локали.
// Строки, равные для локали, но разные побайтно, упорядочиваются побайтно - порядок остаётся строгим.
func CompareLocale(a, b string) int {
	if a == b {
		return 0
	}

	collatorMtx.Lock()
	res := collator.CompareString(a, b)
	collatorMtx.Unlock()

	if res != 0 {
		return res
	}
	return strings.Compare(a, b)
}
