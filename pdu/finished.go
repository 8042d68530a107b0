package pdu

// Finished is the receiver's statement that a transfer has ended.
// DeliveryCode is only meaningful (and only ever true) when
// ConditionCode == NoError (spec.md §4.1).
type Finished struct {
	ConditionCode ConditionCode
	DeliveryCode  bool
	FileStatus    FileStatus
}

func (Finished) directive() (DirectiveCode, bool) { return DirectiveFinished, true }

func (f Finished) encodeField(bool) ([]byte, error) {
	delivery := f.DeliveryCode && f.ConditionCode == NoError
	b := uint8(f.ConditionCode)<<4 | b2u8(delivery)<<2 | uint8(f.FileStatus)&0x03
	return []byte{b}, nil
}

func decodeFinished(h Header, field []byte) (Finished, error) {
	if len(field) < 1 {
		return Finished{}, ErrTruncated
	}
	return Finished{
		ConditionCode: ConditionCode(field[0] >> 4),
		DeliveryCode:  field[0]&0x04 != 0,
		FileStatus:    FileStatus(field[0] & 0x03),
	}, nil
}
