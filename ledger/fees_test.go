package ledger

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestTotalChargeRegularTransfer(t *testing.T) {
	amount := ToMilli(100)
	total, fee := TotalCharge(amount, 5, false)

	// fee = floor(100000*0.03) + 5*1000 = 3000 + 5000 = 8000 milli-BCC
	assert.Equal(t, uint64(8000), fee.Uint64())
	assert.Equal(t, uint64(108000), total.Uint64())
}

func TestTotalChargeStakeUpdateHasNoFee(t *testing.T) {
	amount := ToMilli(50)
	total, fee := TotalCharge(amount, 0, true)

	assert.Equal(t, uint64(0), fee.Uint64())
	assert.Equal(t, amount.Uint64(), total.Uint64())
}

func TestTotalChargeTruncatesFeeFraction(t *testing.T) {
	// 1 BCC * 0.03 = 30 milli, no remainder to truncate at this scale;
	// exercise an amount where the 3% multiply does not divide evenly.
	amount := uint256.NewInt(7) // 7 milli-BCC
	_, fee := TotalCharge(amount, 0, false)
	assert.Equal(t, uint64(0), fee.Uint64(), "floor(7*30/1000) == 0")
}

func TestToMilliTakesAbsoluteValue(t *testing.T) {
	assert.Equal(t, uint64(5000), ToMilli(-5).Uint64())
	assert.Equal(t, uint64(5000), ToMilli(5).Uint64())
}
