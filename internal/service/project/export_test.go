package project

var LockKey = lockKey
