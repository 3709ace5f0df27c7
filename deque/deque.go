/**
 *
 * 利用数组实现的有界双端队列
 * 用于保存迭代过程的记录（半径设计每一轮的半径、扭矩），容量满后从另一端淘汰最旧的元素
 *
 */

package deque

type Deque[T any] interface {
	// 队列的长度
	Size() int

	// 获取队列中对应下标的元素
	Get(i int) T

	// 正向遍历
	Traverse(f func(i int, item *T))

	// 按顺序拷贝出所有元素
	Slice() []T

	// 在队列结尾增加一个元素，队列满时淘汰头部元素
	AddLast(item T)

	// 在队列头部删除一个元素
	RemoveFirst() (T, bool)

	// 清空队列
	Clear()

	IsFull() bool

	IsEmpty() bool
}
