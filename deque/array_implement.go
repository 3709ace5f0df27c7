package deque

// 数组大小基数
const base = 8

var _ Deque[int] = (*ArrDeque[int])(nil)

// ArrDeque 环形数组实现
type ArrDeque[T any] struct {
	arr []T
	// 头部元素所在位置
	start int
	// 元素个数
	size int
	// 容量
	capacity int
}

// 工厂方法，容量向上取整到 base 的倍数
func NewArrDeque[T any](capacity int) *ArrDeque[T] {
	if capacity < 1 {
		capacity = 1
	}
	remainder := capacity % base
	if remainder != 0 {
		capacity = capacity - remainder + base
	}
	return &ArrDeque[T]{
		arr:      make([]T, capacity),
		capacity: capacity,
	}
}

func (ad *ArrDeque[T]) Size() int {
	return ad.size
}

func (ad *ArrDeque[T]) Capacity() int {
	return ad.capacity
}

func (ad *ArrDeque[T]) index(i int) int {
	if i < 0 || i >= ad.size {
		panic("index out of length")
	}
	return (ad.start + i) % ad.capacity
}

func (ad *ArrDeque[T]) Get(i int) T {
	return ad.arr[ad.index(i)]
}

func (ad *ArrDeque[T]) Traverse(f func(i int, item *T)) {
	for i := 0; i < ad.size; i++ {
		f(i, &ad.arr[(ad.start+i)%ad.capacity])
	}
}

// Slice 按顺序拷贝出所有元素
func (ad *ArrDeque[T]) Slice() []T {
	res := make([]T, 0, ad.size)
	ad.Traverse(func(_ int, item *T) {
		res = append(res, *item)
	})
	return res
}

func (ad *ArrDeque[T]) AddLast(item T) {
	if ad.IsFull() {
		ad.RemoveFirst()
	}
	ad.arr[(ad.start+ad.size)%ad.capacity] = item
	ad.size++
}

func (ad *ArrDeque[T]) RemoveFirst() (T, bool) {
	var zero T
	if ad.IsEmpty() {
		return zero, false
	}
	item := ad.arr[ad.start]
	ad.arr[ad.start] = zero
	ad.start = (ad.start + 1) % ad.capacity
	ad.size--
	return item, true
}

// Clear 清空队列，容量不变
func (ad *ArrDeque[T]) Clear() {
	var zero T
	for i := range ad.arr {
		ad.arr[i] = zero
	}
	ad.start, ad.size = 0, 0
}

func (ad *ArrDeque[T]) IsFull() bool {
	return ad.size == ad.capacity
}

func (ad *ArrDeque[T]) IsEmpty() bool {
	return ad.size == 0
}
