package selector

import (
	"crypto/sha256"
	"math/rand/v2"
)

// DefaultSeed 默认洗牌种子
// 固定种子保证同一权重配置在任何安装上得到相同的序列顺序
const DefaultSeed = "pixiviz"

// Source 伪随机数源抽象
// 洗牌（固定种子）与抽取（非固定种子）分别注入，便于复现和测试
type Source interface {
	// IntN 返回 [0, n) 内的随机整数，n <= 0 时行为由实现决定
	IntN(n int) int
}

// NewSeededSource 基于种子字符串创建确定性随机源
// ChaCha8 以种子的 SHA-256 摘要为密钥；返回值非并发安全，每次构建序列时新建一个
func NewSeededSource(seed string) *rand.Rand {
	key := sha256.Sum256([]byte(seed))
	return rand.New(rand.NewChaCha8(key))
}

// SeededFactory 返回一个每次调用都从相同种子重新开始的工厂
func SeededFactory(seed string) func() Source {
	return func() Source {
		return NewSeededSource(seed)
	}
}

// globalSource 使用 math/rand/v2 顶层函数（并发安全、随机播种）
type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

// RandomSource 返回非固定种子的并发安全随机源
func RandomSource() Source {
	return globalSource{}
}
