// Package queue contains implementations of queues.
//
// The multi-producer, multi-consumer queue is located in mpmc/. It is used by
// the rcubench command to fan retirement requests from many producer
// goroutines into the single goroutine that is allowed to call a domain's
// Retire method.
//
// Queue's take unsafe.Pointer's to enqueue, and return those same pointers on
// dequeue. This is done to eliminate the need of a heap allocated interface
// that contains a pointer to the heap allocated variable you are enqueueing.
//
// mpmcdvq contains a transliteration of Dmitry Vyukov's mpmc bounded queue,
// www.1024cores.net/home/lock-free-algorithms/queues/bounded-mpmc-queue.
package queue
