// Package trace records what the memory allocators do: every block
// allocation, reallocation and release becomes an Event with a global
// sequence number. Events are kept in a Recorder, persisted by the
// store subpackage and relayed to Kafka by the broadcaster job.
//
// Events are encoded in the protobuf wire format so consumers can
// decode them with a matching message definition:
//
//	message Event {
//	  uint64 seq   = 1;
//	  uint32 kind  = 2;
//	  string elem  = 3;
//	  uint64 slots = 4;
//	  uint64 bytes = 5;
//	  int64  at    = 6;
//	  uint64 from  = 7;
//	}
package trace
